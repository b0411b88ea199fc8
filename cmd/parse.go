// -- cmd/parse.go --
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/lattice/internal/config"
	"github.com/xkilldash9x/lattice/internal/fetch"
	"github.com/xkilldash9x/lattice/internal/markup"
	"github.com/xkilldash9x/lattice/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var parseFlags struct {
	mode         string
	format       string
	query        string
	separator    string
	pretty       bool
	keepComments bool
	keepPIs      bool
	noTrim       bool
	noDetect     bool
	concurrency  int
}

var parseCmd = &cobra.Command{
	Use:   "parse [file|url|-]...",
	Short: "Parse documents and print the resulting trees",
	Long: `Parse reads HTML or XML from files, URLs, or stdin ("-"), builds a
document tree per input, and prints it in the selected format. HTML mode
repairs malformed markup the way browsers do; strict mode fails on the
first structural error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	f := parseCmd.Flags()
	f.StringVar(&parseFlags.mode, "mode", "", `parsing mode: "html" or "strict" (overrides config)`)
	f.StringVarP(&parseFlags.format, "format", "f", "html", `output format: "html", "text", or "json"`)
	f.StringVarP(&parseFlags.query, "query", "q", "", "print the first string value matching this XPath instead of the tree")
	f.StringVar(&parseFlags.separator, "separator", " ", `separator between text fragments for --format text`)
	f.BoolVar(&parseFlags.pretty, "pretty", false, "indent serialized output")
	f.BoolVar(&parseFlags.keepComments, "keep-comments", false, "retain comment nodes")
	f.BoolVar(&parseFlags.keepPIs, "keep-pi", false, "retain processing instructions")
	f.BoolVar(&parseFlags.noTrim, "no-trim", false, "do not trim whitespace off text nodes")
	f.BoolVar(&parseFlags.noDetect, "no-detect", false, "skip encoding detection")
	f.IntVar(&parseFlags.concurrency, "concurrency", 4, "parallel input limit")
	rootCmd.AddCommand(parseCmd)
}

// report is the JSON form of one parsed document.
type report struct {
	ID       string       `json:"id"`
	Source   string       `json:"source"`
	Encoding string       `json:"encoding"`
	Nodes    int          `json:"nodes"`
	Root     *outlineNode `json:"root,omitempty"`
}

// outlineNode is a serializable view of a tree node.
type outlineNode struct {
	Kind     string            `json:"kind"`
	Value    string            `json:"value,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*outlineNode    `json:"children,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	opts := parserOptions(cfg)

	outputs := make([]string, len(args))
	fetcher := fetch.NewClient(cfg.Fetch, observability.GetLogger())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(parseFlags.concurrency)
	for i, arg := range args {
		i, arg := i, arg
		g.Go(func() error {
			data, contentType, err := loadInput(ctx, fetcher, arg)
			if err != nil {
				return err
			}
			perInput := opts
			perInput.Charset = contentType
			doc, err := markup.New(perInput).ParseBytes(data)
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
			out, err := renderDocument(doc, arg)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, out := range outputs {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}

func parserOptions(cfg *config.Config) markup.Options {
	opts := markup.Options{
		Mode:            markup.ModeHTML,
		TrimText:        cfg.Parser.TrimText,
		KeepComments:    cfg.Parser.KeepComments,
		KeepPIs:         cfg.Parser.KeepPIs,
		DetectEncoding:  cfg.Parser.DetectEncoding,
		ConvertEntities: true,
		Namespaces:      cfg.Parser.Namespaces,
		Logger:          observability.GetLogger(),
	}
	mode := cfg.Parser.Mode
	if parseFlags.mode != "" {
		mode = parseFlags.mode
	}
	if mode == "strict" {
		opts.Mode = markup.ModeStrict
	}
	if parseFlags.keepComments {
		opts.KeepComments = true
	}
	if parseFlags.keepPIs {
		opts.KeepPIs = true
	}
	if parseFlags.noTrim {
		opts.TrimText = false
	}
	if parseFlags.noDetect {
		opts.DetectEncoding = false
	}
	return opts
}

// loadInput reads one input argument: "-" for stdin, an http(s) URL, or a
// local file path. The second result is the transport charset hint, present
// only for URLs.
func loadInput(ctx context.Context, fetcher *fetch.Client, arg string) ([]byte, string, error) {
	switch {
	case arg == "-":
		data, err := readAllStdin()
		return data, "", err
	case isURL(arg):
		res, err := fetcher.Get(ctx, arg)
		if err != nil {
			return nil, "", err
		}
		return res.Body, res.ContentType, nil
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	}
}

func renderDocument(doc *markup.Document, source string) (string, error) {
	if parseFlags.query != "" {
		return markup.EvaluateSingleString(parseFlags.query, doc.Root()), nil
	}
	switch parseFlags.format {
	case "html":
		return doc.Root().Serialize(parseFlags.pretty), nil
	case "text":
		return doc.Root().TextContent(parseFlags.separator), nil
	case "json":
		rep := report{
			ID:       doc.ID().String(),
			Source:   source,
			Encoding: doc.Encoding().String(),
			Nodes:    doc.NodeCount(),
			Root:     outline(doc.Root()),
		}
		var out []byte
		var err error
		if parseFlags.pretty {
			out, err = json.MarshalIndent(rep, "", "  ")
		} else {
			out, err = json.Marshal(rep)
		}
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown output format %q", parseFlags.format)
	}
}

// outline converts a subtree into its JSON view.
func outline(n markup.Node) *outlineNode {
	if n.IsZero() {
		return nil
	}
	o := &outlineNode{Kind: n.Kind().String(), Value: n.Value()}
	for at := n.FirstAttribute(); !at.IsZero(); at = at.NextAttribute() {
		if o.Attrs == nil {
			o.Attrs = make(map[string]string)
		}
		o.Attrs[at.Value()] = at.Reverse().Value()
	}
	for c := n.FirstChild(); !c.IsZero(); c = c.NextSibling() {
		o.Children = append(o.Children, outline(c))
	}
	return o
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
