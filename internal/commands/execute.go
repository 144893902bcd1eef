package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add          func(AddArgs) (Result, error)
	Done         func(TargetArgs) (Result, error)
	Delay        func(DelayArgs) (Result, error)
	Delete       func(TargetArgs) (Result, error)
	Window       func(WindowArgs) (Result, error)
	DefaultDelay func(DefaultDelayArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Done)
	case TypeDelay:
		if handlers.Delay == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delay(*cmd.Delay)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delete(*cmd.Delete)
	case TypeWindow:
		if handlers.Window == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Window(*cmd.Window)
	case TypeDefaultDelay:
		if handlers.DefaultDelay == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.DefaultDelay(*cmd.DefaultDelay)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
