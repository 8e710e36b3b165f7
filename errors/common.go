package errors

import "fmt"

func InvalidParamsErr(err error) error {
	return E(Invalid, "invalid params", err)
}

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid request body", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

// MalformedEventErr wraps a decode failure of a record read from topic.
func MalformedEventErr(topic string, err error) error {
	return fmt.Errorf("%w on %s: %s", ErrMalformedEvent, topic, err.Error())
}

// UnknownTopicErr is returned when a record arrives on a topic nothing handles.
func UnknownTopicErr(topic string) error {
	return Wrap(ErrUnknownTopic, "no handler registered for topic %s", topic)
}
