// Package classify decides whether an invocation is a cacheable help or
// version request or must be passed through to openclaw untouched.
//
// Classification is a pure function over the argument vector: no I/O, no
// knowledge of openclaw's full command grammar. The shim only recognizes the
// help/version trigger flags and the subcommand path in front of them.
package classify

import "strings"

// Kind discriminates which flag triggered caching.
type Kind string

const (
	KindHelp    Kind = "help"
	KindVersion Kind = "version"
)

// Flag returns the normalized trigger flag used when freshly capturing
// content for this kind.
func (k Kind) Flag() string {
	if k == KindVersion {
		return "--version"
	}
	return "--help"
}

// Request is the classification of one argument vector.
type Request struct {
	// Cacheable is true for recognized help/version requests.
	Cacheable bool

	// Path is the normalized subcommand path ("" for the root command,
	// "channels login" for `chitin channels login --help`). Only meaningful
	// when Cacheable.
	Path string

	// Kind is the trigger discriminator. Only meaningful when Cacheable.
	Kind Kind

	// Args is the original argument vector, unchanged.
	Args []string
}

// Key returns the cache key for a cacheable request: the subcommand path
// plus the trigger discriminator. Two invocations with the same path and
// trigger share a key regardless of any other flags present.
func (r Request) Key() string {
	return r.Path + "#" + string(r.Kind)
}

// CaptureArgs returns the normalized argument vector used to capture fresh
// content from openclaw for this request.
func (r Request) CaptureArgs() []string {
	var args []string
	if r.Path != "" {
		args = strings.Fields(r.Path)
	}
	return append(args, r.Kind.Flag())
}

// Classify inspects argv and returns its routing decision.
//
// Normalization rule: the subcommand path is the sequence of non-flag tokens
// preceding the first trigger flag. Other flags never contribute to the path,
// and tokens after the trigger are ignored. An empty argv is a root help
// request (running `chitin` bare shows help, like the wrapped CLI).
func Classify(argv []string) Request {
	req := Request{Args: argv}

	if len(argv) == 0 {
		req.Cacheable = true
		req.Kind = KindHelp
		return req
	}

	var path []string
	for _, arg := range argv {
		switch {
		case isHelpFlag(arg):
			req.Cacheable = true
			req.Path = strings.Join(path, " ")
			req.Kind = KindHelp
			return req
		case isVersionFlag(arg):
			req.Cacheable = true
			req.Path = strings.Join(path, " ")
			req.Kind = KindVersion
			return req
		case strings.HasPrefix(arg, "-"):
			// Unknown flag: may take a value we cannot distinguish from a
			// subcommand token, so a trigger after it still keys on the
			// non-flag tokens seen so far.
		default:
			path = append(path, arg)
		}
	}

	return req
}

func isHelpFlag(arg string) bool {
	return arg == "--help" || arg == "-h"
}

func isVersionFlag(arg string) bool {
	return arg == "--version" || arg == "-V"
}
