package jack

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ----------------------------------------------------------------------------
// Token XML dump

// Debug surface for the lexical phase: the token stream is re-serialized as the
// classic '<tokens>' XML document, one '<kind> value </kind>' line per token.
// The dump is purely observational, compiling does not depend on it, and it is
// lossless: the kind and the unescaped value of each line give back the token it
// was written from, in stream order. String constants are written without their
// quotes, so the values are not re-tokenized.

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// DumpTokens tokenizes the whole input and writes its XML rendition to 'w'.
func DumpTokens(r io.Reader, w io.Writer) error {
	tokenizer, out := NewTokenizer(r), bufio.NewWriter(w)

	if _, err := out.WriteString("<tokens>\n"); err != nil {
		return err
	}

	for tokenizer.Scan() {
		token := tokenizer.Token()
		line := fmt.Sprintf("<%s> %s </%s>\n", token.Type, xmlEscaper.Replace(token.Value), token.Type)
		if _, err := out.WriteString(line); err != nil {
			return err
		}
	}
	if err := tokenizer.Err(); err != nil {
		return fmt.Errorf("error tokenizing input: %w", err)
	}

	if _, err := out.WriteString("</tokens>\n"); err != nil {
		return err
	}
	return out.Flush()
}
