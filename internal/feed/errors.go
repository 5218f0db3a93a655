package feed

// FetchError indicates the feed location could not be retrieved (transport
// failure or non-success HTTP status). The message is the collaborator's
// error text verbatim; callers record it into the calendar's last_log.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates the feed body is not parsable calendar data. It is
// fatal for the sync attempt that produced it.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }
