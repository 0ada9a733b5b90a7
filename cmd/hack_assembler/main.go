package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/endlmk/nand2tetris/pkg/asm"
	"github.com/endlmk/nand2tetris/pkg/hack"

	"github.com/sirupsen/logrus"
	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembly (.asm) file to be assembled")).
	WithArg(cli.NewArg("output", "The assembled binary output (.hack)")).
	WithOption(cli.NewOption("verbose", "Logs the progress of each assembly pass").
		WithType(cli.TypeBool)).
	WithAction(Handler)

var log = logrus.New()

func Handler(args []string, options map[string]string) int {
	log.SetLevel(logrus.WarnLevel)
	if _, enabled := options["verbose"]; enabled {
		log.SetLevel(logrus.DebugLevel)
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	log.WithField("input", args[0]).Debug("parsing program")

	// Instantiate a parser for the Asm program and extract the typed IR from it.
	parser := asm.NewParser(bytes.NewReader(input))
	asmProgram, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	log.WithField("instructions", len(asmProgram)).Debug("lowering program")

	// Lowers the asm.Program to its Hack counterpart, building the label symbol
	// table along the way (the assembler's first pass).
	lowerer := asm.NewLowerer(asmProgram)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	log.WithField("labels", len(table)).Debug("generating machine code")

	// Now, instantiates a code generator for the Hack (assembled) program, this is
	// also the second pass where variables get allocated from address 16 onwards.
	codegen := hack.NewCodeGenerator(hackProgram, table)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(args[1])
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

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
