package hooklib

// Exit status of a process killed by the fatal path, the same as abort(3)
// reports through a shell.
const ExitAbort = 128 + 6

var (
	msgUnresolved = []byte("goPreload: could not resolve the next definition of hooked symbol: ")
	msgRecursive  = []byte("goPreload: recursive resolution of hooked symbol: ")
	newline       = []byte{'\n'}
)

// barf reports a broken interposition layer and kills the process.
//
// It cannot panic or log: the hooked symbol may be something the panic and
// logging machinery itself depends on. Only raw writes to fd 2 and exit_group.
func barf(msg []byte, name Name) {
	rawWrite(msg)
	rawWrite(name.Bytes())
	rawWrite(newline)
	rawExit(ExitAbort)
}
