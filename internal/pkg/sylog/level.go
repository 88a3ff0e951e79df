package sylog

// messageLevel mirrors apptainer's pkg/sylog level scheme: negative levels
// are quieter than the default, positive levels are more verbose.
type messageLevel int

const (
	FatalLevel   messageLevel = iota - 4
	ErrorLevel
	WarnLevel
	LogLevel
	InfoLevel
	VerboseLevel
	Verbose2Level
	Verbose3Level
	DebugLevel
)

func (l messageLevel) String() string {
	switch l {
	case FatalLevel:
		return "FATAL"
	case ErrorLevel:
		return "ERROR"
	case WarnLevel:
		return "WARNING"
	case LogLevel:
		return "LOG"
	case InfoLevel:
		return "INFO"
	case VerboseLevel, Verbose2Level, Verbose3Level:
		return "VERBOSE"
	case DebugLevel:
		return "DEBUG"
	default:
		return "????"
	}
}
