package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type gmailSvc interface {
	getMessagesSvc
	searchMessagesSvc
}

// NewServer creates an MCP server with the reply workflow and read-only Gmail
// tools.
func NewServer(svc gmailSvc, threads threadFetcher, protocol replyProtocol) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-reply-assistant", Version: "v1.0.0"}, nil)

	replies := NewReply(protocol)

	mcp.AddTool(server, &mcp.Tool{
		Name: "prepare_email_reply",
		Description: "Draft a reply to an email thread using the thread, prior correspondence and company knowledge. " +
			"Does NOT create anything in Gmail: returns a preview and a confirmation ID that expires after 10 minutes. " +
			"When error is ambiguous_target, ask the user to pick one of the candidates and retry with its thread_id.",
	}, replies.PrepareEmailReply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "confirm_email_reply",
		Description: "Create the Gmail draft for a previewed reply. Only call after the user approved the preview.",
	}, replies.ConfirmEmailReply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_email_reply",
		Description: "Discard a previewed reply without creating a draft",
	}, replies.CancelEmailReply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_messages",
		Description: "Search Gmail messages using Gmail search syntax",
	}, NewSearchMessages(svc).SearchMessages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_messages",
		Description: "Get full message content for specified message IDs",
	}, NewGetMessages(svc).GetMessages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thread",
		Description: "Get every message of a Gmail thread with its direction and plain text body",
	}, NewGetThread(threads).GetThread)

	return server
}
