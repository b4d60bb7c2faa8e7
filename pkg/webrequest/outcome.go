package webrequest

import "strings"

// Kind classifies how a fetch ended.
type Kind int

const (
	KindSuccess Kind = iota
	KindConnectionError
	KindDataProcessingError
	KindProtocolError
)

// Result codes delivered inside the sentinel texts.
const (
	CodeConnectionError     = "1000"
	CodeDataProcessingError = "1001"
	CodeProtocolError       = "1002"
)

// Sentinel texts handed to FetchJSON callbacks in place of a body.
const (
	ResultConnectionError     = `{"result":"1000"}`
	ResultDataProcessingError = `{"result":"1001"}`
	ResultProtocolError       = `{"result":"1002"}`
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindConnectionError:
		return "connection_error"
	case KindDataProcessingError:
		return "data_processing_error"
	case KindProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// ParseKind maps a Kind name as returned by String back to the Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range []Kind{KindSuccess, KindConnectionError, KindDataProcessingError, KindProtocolError} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Code returns the result code for failure kinds and "" for success.
func (k Kind) Code() string {
	switch k {
	case KindConnectionError:
		return CodeConnectionError
	case KindDataProcessingError:
		return CodeDataProcessingError
	case KindProtocolError:
		return CodeProtocolError
	default:
		return ""
	}
}

// Outcome is the classified result of one fetch.
type Outcome struct {
	Kind Kind
	// Body is the raw response text on success.
	Body string
	// Detail is the transport or HTTP error text on failure.
	Detail     string
	StatusCode int
	// Label is the final path segment of the requested URL.
	Label string
}

// Text is what a FetchJSON callback receives for this outcome.
func (o Outcome) Text() string {
	switch o.Kind {
	case KindConnectionError:
		return ResultConnectionError
	case KindDataProcessingError:
		return ResultDataProcessingError
	case KindProtocolError:
		return ResultProtocolError
	default:
		return o.Body
	}
}

// Label returns the final "/"-separated segment of url. It is only used to
// tag log entries.
func Label(url string) string {
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ResultCode reports whether text is one of the failure sentinels and returns
// its code. A successful body whose bytes equal a sentinel is
// indistinguishable from a failure.
func ResultCode(text string) (string, bool) {
	switch text {
	case ResultConnectionError:
		return CodeConnectionError, true
	case ResultDataProcessingError:
		return CodeDataProcessingError, true
	case ResultProtocolError:
		return CodeProtocolError, true
	default:
		return "", false
	}
}

// KindForText maps delivered callback text back to a Kind.
func KindForText(text string) Kind {
	code, ok := ResultCode(text)
	if !ok {
		return KindSuccess
	}
	switch code {
	case CodeConnectionError:
		return KindConnectionError
	case CodeDataProcessingError:
		return KindDataProcessingError
	default:
		return KindProtocolError
	}
}
