package server

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	switch params.Command {
	case CommandReferenceCount:
		return s.countCommand(params.Arguments)
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

// countCommand takes a single virtual path argument.
func (s *Server) countCommand(args []any) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s expects one argument, got %d", CommandReferenceCount, len(args))
	}
	target, ok := args[0].(string)
	if !ok {
		return 0, fmt.Errorf("%s expects a virtual path, got %T", CommandReferenceCount, args[0])
	}

	_, index, err := s.ready()
	if err != nil {
		return 0, err
	}
	return index.Count(s.requestContext(), target), nil
}
