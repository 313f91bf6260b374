package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/adpilot/internal/engineconfig"
)

// engineConfigCmd represents the engine-config command
var engineConfigCmd = &cobra.Command{
	Use:   "engine-config",
	Short: "엔진 설정(YAML) 관리",
	Long: `엔진 임계값/점수표/가중치 YAML 을 검증하고 해시를 계산합니다.

Subcommands:
  validate [path]  - YAML 검증 (KnownFields strict)
  hash [path]      - canonical JSON SHA256 (결과 metadata 의 config_hash)
  defaults         - 기본값 YAML 출력

Example:
  go run ./cmd/adpilot engine-config validate config/engine.yaml
  go run ./cmd/adpilot engine-config defaults > config/engine.yaml`,
}

var (
	engineConfigValidateCmd = &cobra.Command{
		Use:   "validate [path]",
		Short: "엔진 설정 검증",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEngineConfigValidate,
	}

	engineConfigHashCmd = &cobra.Command{
		Use:   "hash [path]",
		Short: "엔진 설정 해시",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEngineConfigHash,
	}

	engineConfigDefaultsCmd = &cobra.Command{
		Use:   "defaults",
		Short: "기본 엔진 설정 출력",
		Args:  cobra.NoArgs,
		RunE:  runEngineConfigDefaults,
	}
)

func init() {
	rootCmd.AddCommand(engineConfigCmd)
	engineConfigCmd.AddCommand(engineConfigValidateCmd)
	engineConfigCmd.AddCommand(engineConfigHashCmd)
	engineConfigCmd.AddCommand(engineConfigDefaultsCmd)
}

// configPathArg: 인자 > --engine-config > $ENGINE_CONFIG
func configPathArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	if engineConfigPath != "" {
		return engineConfigPath
	}
	return os.Getenv("ENGINE_CONFIG")
}

func runEngineConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPathArg(args)
	cfg, _, err := engineconfig.Load(path)
	if err != nil {
		var verr engineconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(fmt.Sprintf("%s: %s", verr.Field, verr.Message))
		} else {
			PrintError(err.Error())
		}
		return err
	}

	if path == "" {
		path = "(built-in defaults)"
	}
	PrintSuccess(fmt.Sprintf("%s is valid", path))
	for _, w := range engineconfig.Warn(cfg) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	return nil
}

func runEngineConfigHash(cmd *cobra.Command, args []string) error {
	cfg, _, err := engineconfig.Load(configPathArg(args))
	if err != nil {
		return err
	}
	hash, err := engineconfig.Hash(cfg)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runEngineConfigDefaults(cmd *cobra.Command, args []string) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(engineconfig.Default())
}
