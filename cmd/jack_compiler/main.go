package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/endlmk/nand2tetris/pkg/jack"
	"github.com/endlmk/nand2tetris/pkg/vm"

	"github.com/sirupsen/logrus"
	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Jack Compiler compiles programs (composed of multiple classes/files) written in
the Jack language into VM modules that can be further elaborated. The Jack language
is a higher-level OOP language tailored for use with the Hack computer architecture.
`, "\n", " ")

var JackCompiler = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .jack file or directory
	WithArg(cli.NewArg("inputs", "The source (.jack) files or directories to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("tokens", "Dumps the token stream of each class as an XML file").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Logs the progress of each compilation pass").
		WithType(cli.TypeBool)).
	WithAction(Handler)

var log = logrus.New()

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	log.SetLevel(logrus.WarnLevel)
	if _, enabled := options["verbose"]; enabled {
		log.SetLevel(logrus.DebugLevel)
	}

	// Aggregates all the Translation Units (TUs) found during the input walk.
	// While the Jack language spec follows the same semantic as Java (every file is
	// a class) each TU stays fully independent: it is tokenized, compiled and
	// written out on its own, there's no cross-file resolution to wait for.
	TUs := []string{}

	for _, input := range args {
		err := filepath.Walk(input, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(path) != ".jack" {
				return nil // We recurse on dirs and ignore other filetypes
			}

			TUs = append(TUs, path)
			return nil
		})
		if err != nil {
			fmt.Printf("ERROR: Unable to walk input path: %s\n", err)
			return -1
		}
	}

	for _, tu := range TUs {
		if err := compile(tu, options); err != nil {
			fmt.Printf("ERROR: Unable to compile '%s': %s\n", tu, err)
			return -1
		}
	}

	return 0
}

// Pushes a single translation unit through the tokenize + compile pipeline, the
// output .vm file (and the optional token dump) lands next to the input file.
func compile(tu string, options map[string]string) error {
	base := strings.TrimSuffix(tu, filepath.Ext(tu))

	if _, enabled := options["tokens"]; enabled {
		log.WithField("unit", tu).Debug("dumping token stream")

		if err := dumpTokens(tu, fmt.Sprintf("%sT.xml", base)); err != nil {
			return fmt.Errorf("unable to complete 'tokenize' pass: %w", err)
		}
	}

	input, err := os.Open(tu)
	if err != nil {
		return fmt.Errorf("unable to open input file: %w", err)
	}
	defer input.Close()

	output, err := os.Create(fmt.Sprintf("%s.vm", base))
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}
	defer output.Close()

	log.WithField("unit", tu).Debug("compiling class")

	// The compilation engine streams VM operations to the writer while parsing,
	// a successful CompileClass has already flushed the whole module.
	compiler := jack.NewCompiler(jack.NewTokenizer(input), vm.NewWriter(output))
	if err := compiler.CompileClass(); err != nil {
		return fmt.Errorf("unable to complete 'compile' pass: %w", err)
	}

	return nil
}

// Re-reads the translation unit and writes its token stream XML rendition.
func dumpTokens(tu, path string) error {
	input, err := os.Open(tu)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(path)
	if err != nil {
		return err
	}
	defer output.Close()

	return jack.DumpTokens(input, output)
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
