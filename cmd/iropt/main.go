// Command iropt is the CLI front end over pkg/driver: verify, lower, unroll,
// and run subcommands mirroring the superoptimizer's enumerate/target/stoke
// command tree, except the "target" here is a demo graph picked by name
// since this core has no source-to-IR frontend.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oisee/irgraph/pkg/driver"
	"github.com/oisee/irgraph/pkg/dw"
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/unroll"
	"github.com/oisee/irgraph/pkg/verify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "iropt",
		Short: "Compiler middle-end pass driver — verify, lower, unroll",
	}

	var cfgFile string
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (TOML/YAML) overriding the flag defaults below")
	rootCmd.PersistentFlags().String("sample", "dwadd", fmt.Sprintf("Demo graph to run: %s", strings.Join(sortedSampleNames(), ", ")))

	var dwWidth uint8
	var dwLittleEndian bool
	var maxFactor, maxSize int

	bindPipelineFlags := func(cmd *cobra.Command) {
		cmd.Flags().Uint8Var(&dwWidth, "dw-width", 64, "Doubleword bit width lower_dw_ops splits")
		cmd.Flags().BoolVar(&dwLittleEndian, "dw-little-endian", true, "Doubleword half ordering")
		cmd.Flags().IntVar(&maxFactor, "max-factor", 8, "Maximum loop unroll factor")
		cmd.Flags().IntVar(&maxSize, "max-size", 1000, "Maximum loop body size (nodes) eligible for unrolling")
	}

	// loadConfig binds cmd's flags into viper and, when --config names a
	// file, lets that file's values override the flag defaults — the same
	// precedence order (file over default, flag over file) the teacher's
	// flags-only commands never needed but the config-file layer requires.
	loadConfig := func(cmd *cobra.Command) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if cfgFile == "" {
			return nil
		}
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		if viper.IsSet("dw-width") {
			dwWidth = uint8(viper.GetUint("dw-width"))
		}
		if viper.IsSet("dw-little-endian") {
			dwLittleEndian = viper.GetBool("dw-little-endian")
		}
		if viper.IsSet("max-factor") {
			maxFactor = viper.GetInt("max-factor")
		}
		if viper.IsSet("max-size") {
			maxSize = viper.GetInt("max-size")
		}
		return nil
	}

	loadSample := func(cmd *cobra.Command) (*graph.Graph, string, error) {
		if err := loadConfig(cmd); err != nil {
			return nil, "", err
		}
		name, _ := cmd.Flags().GetString("sample")
		build, ok := samples[name]
		if !ok {
			return nil, "", fmt.Errorf("unknown --sample %q: choose one of %s", name, strings.Join(sortedSampleNames(), ", "))
		}
		return build(), name, nil
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a demo graph's structural invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, name, err := loadSample(cmd)
			if err != nil {
				return err
			}
			res := verify.Graph(g, driver.DefaultLogger())
			fmt.Printf("%s: %d nodes, %d violations\n", name, g.NumNodes(), len(res.Violations))
			for _, v := range res.Violations {
				fmt.Printf("  %s\n", v)
			}
			if len(res.Violations) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	lowerCmd := &cobra.Command{
		Use:   "lower",
		Short: "Run lower_dw_ops over a demo graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, name, err := loadSample(cmd)
			if err != nil {
				return err
			}
			before := g.NumNodes()
			if err := dw.LowerGraph(g, dw.Params{Width: dwWidth, LittleEndian: dwLittleEndian, Intrinsics: debugIntrinsics{}}); err != nil {
				return fmt.Errorf("lower_dw_ops: %w", err)
			}
			fmt.Printf("%s: %d -> %d nodes\n", name, before, g.NumNodes())
			return nil
		},
	}
	bindPipelineFlags(lowerCmd)

	unrollCmd := &cobra.Command{
		Use:   "unroll",
		Short: "Run unroll_loops over a demo graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, name, err := loadSample(cmd)
			if err != nil {
				return err
			}
			before := g.NumNodes()
			report := unroll.UnrollLoops(g, unroll.Params{MaxFactor: maxFactor, MaxSize: maxSize})
			fmt.Printf("%s: %d -> %d nodes, %d loop(s) unrolled\n", name, before, g.NumNodes(), report.LoopsUnrolled())
			for _, o := range report.Loops {
				fmt.Printf("  header %d: unrolled=%v factor=%d fully=%v reason=%s\n", o.Header, o.Unrolled, o.Factor, o.FullyUnrolled, o.Reason)
			}
			return nil
		},
	}
	bindPipelineFlags(unrollCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full verify -> lower -> verify -> unroll -> verify pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, name, err := loadSample(cmd)
			if err != nil {
				return err
			}
			report := driver.NewReport()
			params := driver.Params{
				DoubleWord: dw.Params{Width: dwWidth, LittleEndian: dwLittleEndian, Intrinsics: debugIntrinsics{}},
				Unroll:     unroll.Params{MaxFactor: maxFactor, MaxSize: maxSize},
				Log:        driver.DefaultLogger(),
			}
			if err := driver.Pipeline(g, name, params, report); err != nil {
				return err
			}
			printReport(report)
			if report.TotalViolations() > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	bindPipelineFlags(runCmd)

	rootCmd.AddCommand(verifyCmd, lowerCmd, unrollCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printReport(r *driver.Report) {
	outcomes := r.Outcomes()
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].Pass < outcomes[j].Pass })
	for _, o := range outcomes {
		fmt.Printf("%-20s %-16s nodes %4d -> %-4d  loops_unrolled=%d  violations=%d\n",
			o.Graph, o.Pass, o.NodesBefore, o.NodesAfter, o.LoopsUnrolled, o.Violations)
	}
}
