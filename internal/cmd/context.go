package cmd

import (
	"io"

	"github.com/jimezsa/usajobsfn/internal/config"
	"github.com/jimezsa/usajobsfn/internal/ui"
	"github.com/rs/zerolog"
)

// Context is handed to every command's Run method.
type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Build      BuildInfo
}
