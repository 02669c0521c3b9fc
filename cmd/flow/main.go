package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"codecanvas/pkg/core/agent"
	"codecanvas/pkg/core/codefmt"
	"codecanvas/pkg/core/flows"
	"codecanvas/pkg/core/prompt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	config    string
	resources string
	provider  string
	timeout   time.Duration
	jsonOut   bool
}

func main() {
	// Provider keys may live in .env; the process environment is enough otherwise.
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "flow",
		Short:        "Run the code generation, analysis and documentation flows from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.config, "config", "config/models.yaml", "model routing file")
	root.PersistentFlags().StringVar(&opts.resources, "resources", "resources", "directory of prompt overrides")
	root.PersistentFlags().StringVarP(&opts.provider, "provider", "p", "", "provider for every flow (overrides active_provider)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "deadline for one invocation")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print the raw result as JSON")

	root.AddCommand(newGenerateCmd(opts), newAnalyzeCmd(opts), newDocumentCmd(opts), newInspectCmd())
	return root
}

func newService(opts *options) (*flows.Service, error) {
	cfg, err := agent.LoadConfig(opts.config)
	if err != nil {
		return nil, err
	}
	if opts.provider != "" {
		cfg.ActiveProvider = opts.provider
		cfg.Agents = nil
	}
	mgr := agent.NewManager(cfg, agent.BuildProviders(context.Background(), cfg, os.Getenv))
	if _, err := mgr.ProviderFor(flows.Generate); err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(mgr.Available(), ", "))
	}

	prompts := prompt.NewRegistry()
	if _, err := os.Stat(opts.resources); err == nil {
		if err := prompt.LoadFromDirectory(prompts, opts.resources); err != nil {
			return nil, err
		}
	}
	registry, err := flows.NewRegistry(prompts, mgr.For)
	if err != nil {
		return nil, err
	}
	return flows.NewService(registry), nil
}

// readCode reads the file named by args[0], or stdin when it is absent or "-".
func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

func run[I, O any](cmd *cobra.Command, opts *options, input I, invoke func(*flows.Service, context.Context, I) (*O, error), show func(io.Writer, *O)) error {
	svc, err := newService(opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	start := time.Now()
	out, err := invoke(svc, ctx, input)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	show(cmd.OutOrStdout(), out)
	fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func newGenerateCmd(opts *options) *cobra.Command {
	var framework string
	cmd := &cobra.Command{
		Use:   "generate <request>",
		Short: "Generate a code snippet from a natural-language request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flows.GenerateCodeSnippetInput{Prompt: strings.Join(args, " "), Framework: framework}
			return run(cmd, opts, in, (*flows.Service).GenerateCodeSnippet, func(w io.Writer, out *flows.GenerateCodeSnippetOutput) {
				name := out.FileName
				if !codefmt.HasExtension(name) {
					name = codefmt.SnippetFileName(out.Code)
				}
				fmt.Fprintf(w, "📄 %s\n\n%s\n\n%s\n", name, out.Code, out.Explanation)
			})
		},
	}
	cmd.Flags().StringVarP(&framework, "framework", "f", "", "target language or framework")
	return cmd
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Explain code and list issues and suggestions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd, opts, flows.AnalyzeCodeInput{Code: code}, (*flows.Service).AnalyzeCode, func(w io.Writer, out *flows.AnalyzeCodeOutput) {
				fmt.Fprintf(w, "[1] EXPLANATION\n%s\n\n[2] POTENTIAL ISSUES\n%s\n\n[3] SUGGESTIONS\n%s\n", out.Explanation, out.PotentialIssues, out.Suggestions)
			})
		},
	}
}

func newDocumentCmd(opts *options) *cobra.Command {
	var (
		docType  string
		examples bool
	)
	cmd := &cobra.Command{
		Use:   "document [file|-]",
		Short: "Write documentation for code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd, args)
			if err != nil {
				return err
			}
			in := flows.GenerateDocumentationInput{Code: code, DocumentationType: docType, IncludeExamples: examples}
			return run(cmd, opts, in, (*flows.Service).GenerateDocumentation, func(w io.Writer, out *flows.GenerateDocumentationOutput) {
				fmt.Fprintf(w, "📄 %s\n%s\n\n%s\n", out.FileName, out.Summary, out.Documentation)
			})
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "", "one of "+strings.Join(flows.DocumentationTypes, ", "))
	cmd.Flags().BoolVarP(&examples, "examples", "e", false, "include usage examples")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Detect the language and complexity of code without calling a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd, args)
			if err != nil {
				return err
			}
			meta := codefmt.Analyze(code)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Language:   %s\n", meta.Language)
			fmt.Fprintf(w, "File name:  %s\n", codefmt.SnippetFileName(code))
			fmt.Fprintf(w, "Lines:      %d\n", meta.LineCount)
			fmt.Fprintf(w, "Complexity: %s\n", meta.Complexity)
			if fns := codefmt.ExtractFunctions(code, meta.Language); len(fns) > 0 {
				fmt.Fprintf(w, "Functions:  %s\n", strings.Join(fns, ", "))
			}
			return nil
		},
	}
}
