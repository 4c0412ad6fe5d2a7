package classify

import (
	"errors"
	"net"
)

// NetworkCheck reports whether an error looks like a transient network
// failure. It is an injected collaborator: the retry loop only consumes
// the boolean.
type NetworkCheck func(err error) bool

// Messages produced by fetch failures across the major runtimes. A
// type-mismatch error carrying one of these is a network failure, not a
// programming error, and stays retryable.
var networkErrorMessages = map[string]struct{}{
	"Failed to fetch":                                    {}, // Chrome
	"NetworkError when attempting to fetch resource.":    {}, // Firefox
	"The Internet connection appears to be offline.":     {}, // Safari 16
	"Load failed":                                        {}, // Safari 17+
	"Network request failed":                             {}, // `cross-fetch`
	"fetch failed":                                       {}, // Undici (Node.js)
	"terminated":                                         {}, // Undici (Node.js)
}

// IsNetworkError is the default NetworkCheck: it recognizes the known
// fetch-failure messages and any net.Error in the chain.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := networkErrorMessages[err.Error()]; ok {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}
