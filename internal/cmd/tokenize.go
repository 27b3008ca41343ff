package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jimezsa/usajobsfn/internal/keywords"
)

type TokenizeCmd struct {
	Keywords string `arg:"" help:"Keyword string, e.g. 'nurse \"social worker\"'."`
}

func (t *TokenizeCmd) Run(ctx *Context) error {
	terms, err := keywords.Tokenize(t.Keywords)
	if err != nil {
		return err
	}

	if ctx.JSONOutput {
		return json.NewEncoder(ctx.Out).Encode(terms)
	}
	for _, term := range terms {
		if _, err := fmt.Fprintln(ctx.Out, term); err != nil {
			return err
		}
	}
	return nil
}
