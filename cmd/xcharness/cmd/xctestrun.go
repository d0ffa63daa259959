package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexicalci/xcharness/internal/config"
	"github.com/lexicalci/xcharness/internal/logging"
	"github.com/lexicalci/xcharness/internal/xctestrun"
)

var (
	patchProducts string
	patchScheme   string
	patchPrefixes []string
)

var patchXCTestRunCmd = &cobra.Command{
	Use:   "patch-xctestrun [flags]",
	Short: "Inject host env vars into the newest .xctestrun",
	Long: `xcodebuild test does not forward host environment variables into the iOS
simulator's xctest process. patch-xctestrun takes the newest .xctestrun
produced by build-for-testing, copies it next to the original, and injects
matching host env vars into every test target's EnvironmentVariables and
TestingEnvironmentVariables.

The patched path is printed on stdout so callers can feed it to:
  xcodebuild -xctestrun <patched> test-without-building

Example:
  LEXICAL_BENCH_BLOCKS=5000 xcharness patch-xctestrun --scheme Lexical-Package`,
	RunE: runPatchXCTestRun,
}

func init() {
	rootCmd.AddCommand(patchXCTestRunCmd)

	patchXCTestRunCmd.Flags().StringVar(&patchProducts, "products", "", "Build products directory holding .xctestrun files")
	patchXCTestRunCmd.Flags().StringVar(&patchScheme, "scheme", "", "Scheme name used to match .xctestrun files")
	patchXCTestRunCmd.Flags().StringArrayVar(&patchPrefixes, "prefix", nil, "Env var prefix to inject (repeatable)")
}

func runPatchXCTestRun(cmd *cobra.Command, args []string) error {
	defaults, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	products := patchProducts
	if products == "" {
		products = defaults.Products
	}
	prefixes := patchPrefixes
	if len(prefixes) == 0 {
		prefixes = defaults.EnvPrefixes
	}

	log := logging.New("xctestrun")

	env := xctestrun.CollectEnv(os.Environ(), prefixes)
	if len(env) == 0 {
		log.Warn("no host env vars matched, patched copy will be unchanged", map[string]interface{}{
			"prefixes": prefixes,
		})
	}

	src, err := xctestrun.FindLatest(products, patchScheme)
	if err != nil {
		return err
	}
	dst := xctestrun.PatchedName(src, patchScheme)
	if err := xctestrun.Patch(src, dst, env); err != nil {
		return err
	}

	log.Info("patched xctestrun", map[string]interface{}{
		"source": src,
		"vars":   len(env),
	})
	fmt.Println(dst)
	return nil
}
