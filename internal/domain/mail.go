package domain

// Mail is a templated message handed to a mail sender.
// Template names a file under the sender's template root, without extension.
type Mail struct {
	Subject  string
	Sender   string
	Receiver string
	Template string
	Data     any
}
