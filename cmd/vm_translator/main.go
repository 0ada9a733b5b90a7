package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/endlmk/nand2tetris/pkg/asm"
	"github.com/endlmk/nand2tetris/pkg/vm"

	"github.com/sirupsen/logrus"
	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .vm file
	WithArg(cli.NewArg("inputs", "The bytecode (.vm) files or directories to be translated").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "The translated assembly output (.asm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Includes the power-up sequence in the final .asm file").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Logs the progress of each translation pass").
		WithType(cli.TypeBool)).
	WithAction(Handler)

var log = logrus.New()

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 || options["output"] == "" {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	log.SetLevel(logrus.WarnLevel)
	if _, enabled := options["verbose"]; enabled {
		log.SetLevel(logrus.DebugLevel)
	}

	// Collects every .vm translation unit reachable from the inputs, each one is
	// parsed independently and registered in the program under its unit name (the
	// name also prefixes the unit's 'static' segment slots).
	TUs := []string{}

	for _, input := range args {
		err := filepath.Walk(input, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(path) != ".vm" {
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

	program := vm.Program{}

	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		log.WithField("unit", tu).Debug("parsing module")

		// Removes root directory and file extension to use as the unit name
		filename, extension := path.Base(tu), path.Ext(tu)
		parser := vm.NewParser(bytes.NewReader(content))
		program[strings.TrimSuffix(filename, extension)], err = parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
	}

	log.WithField("modules", len(program)).Debug("lowering program")

	// Lowers the vm.Program to the in-memory representation of its Asm counterpart.
	// The optional power-up sequence (SP at 256, then a standard call to Sys.init)
	// must come first in the final program.
	lowerer := vm.NewLowerer(program)
	asmProgram := asm.Program{}

	if _, enabled := options["bootstrap"]; enabled {
		bootstrap, err := lowerer.Bootstrap()
		if err != nil {
			fmt.Printf("ERROR: Unable to emit bootstrap sequence: %s\n", err)
			return -1
		}
		asmProgram = append(asmProgram, bootstrap...)
	}

	lowered, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}
	asmProgram = append(asmProgram, lowered...)

	// Now, instantiates a code generator for the Asm (translated) program and
	// renders each instruction to its own CRLF terminated output line.
	codegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(options["output"])
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, line := range compiled {
		if _, err := fmt.Fprintf(output, "%s\r\n", line); err != nil {
			fmt.Printf("ERROR: Unable to write output file: %s\n", err)
			return -1
		}
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
