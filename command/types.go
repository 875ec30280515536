package command

import "context"

// Command is a navigation intent typed by the user.
type Command string

const (
	Next   Command = "next"
	Back   Command = "back"
	Submit Command = "submit"
	Reset  Command = "reset"
	Quit   Command = "quit"
	None   Command = "none"
)

type Parser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}

// Navigator is the part of the wizard a command can drive.
type Navigator interface {
	Next(ctx context.Context) bool
	Back(ctx context.Context) bool
	Submit(ctx context.Context) bool
	Reset(ctx context.Context)
}
