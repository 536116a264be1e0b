package at

const (
	// Terminal Control
	CRLF = "\r\n"
	CR   = "\r"

	// Response Codes
	OK       = "OK"
	ERROR    = "ERROR"
	CmeError = "+CME ERROR:"
	CmsError = "+CMS ERROR:"

	// Response markers
	MarkerVersion    = "+VERSNAME:"
	MarkerChipset    = "+VERSNAME:1,"
	MarkerSIMLock    = "+SVCIFPGM:"
	MarkerCarrierID  = "+RFBYCODE:1,"
	MarkerReactive   = "REACTIVE:1,"
	MarkerRecordEdge = "@#"
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR
	TypeData                      // Everything else (+VERSNAME: ..., echoes)
)

// Command is a single outbound AT payload together with its line terminator.
type Command struct {
	Text       string
	Terminator string
}

// Cmd returns a CRLF terminated command.
func Cmd(text string) Command {
	return Command{Text: text, Terminator: CRLF}
}

// WithTerminator returns a copy of c terminated by term.
func (c Command) WithTerminator(term string) Command {
	c.Terminator = term
	return c
}

// Wire returns the exact bytes written to the transport.
func (c Command) Wire() []byte {
	return []byte(c.Text + c.Terminator)
}

func (c Command) String() string {
	return c.Text
}

// Join batches several commands into one line separated by semicolons. The
// terminator of the last command is used for the batch.
func Join(cmds ...Command) Command {
	if len(cmds) == 0 {
		return Command{}
	}
	text := cmds[0].Text
	for _, c := range cmds[1:] {
		text += ";" + c.Text
	}
	return Command{Text: text, Terminator: cmds[len(cmds)-1].Terminator}
}
