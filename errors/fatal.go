package errors

// Fatal raises a contract violation. There is no safe continuation once a
// layout assumption about the host heap may be wrong, so it never returns.
func Fatal(err *Error) {
	panic(err)
}

// AsFatal extracts the structured error from a value recovered from a
// contract-violation panic.
func AsFatal(recovered any) (*Error, bool) {
	err, ok := recovered.(*Error)
	return err, ok
}
