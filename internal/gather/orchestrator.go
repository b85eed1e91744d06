// Package gather collects the context a reply is drafted from: the target
// thread, prior correspondence with the recipient and matching reference
// knowledge. Only the thread is required; the other two sources degrade to
// warnings.
package gather

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/hal9000y/gmail-reply-mcp/internal/observability"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

// MaxCandidates bounds the threads considered when no thread id is given.
const MaxCandidates = 5

// ThreadSource resolves and fetches email threads.
type ThreadSource interface {
	FetchThread(ctx context.Context, threadID string) (reply.ThreadContext, error)
	SearchThreads(ctx context.Context, query string, max int64) ([]reply.ThreadCandidate, error)
}

// HistorySource summarizes prior correspondence with an address.
type HistorySource interface {
	FetchHistory(ctx context.Context, address string) (reply.CorrespondenceSummary, error)
}

// KnowledgeSource looks up reference passages for a topic.
type KnowledgeSource interface {
	Search(ctx context.Context, topic string) ([]reply.KnowledgeSnippet, error)
}

// Request describes what the user wants to reply to.
type Request struct {
	Instructions  string
	ThreadHint    string
	TalkingPoints string
}

// Gathered is the combined, read-only context of one prepare cycle.
type Gathered struct {
	Thread    reply.ThreadContext
	History   reply.CorrespondenceSummary
	Knowledge []reply.KnowledgeSnippet
}

// Orchestrator fans out to the context sources.
type Orchestrator struct {
	threads   ThreadSource
	history   HistorySource
	knowledge KnowledgeSource
}

// NewOrchestrator creates an orchestrator over the given sources.
func NewOrchestrator(threads ThreadSource, history HistorySource, knowledge KnowledgeSource) *Orchestrator {
	return &Orchestrator{
		threads:   threads,
		history:   history,
		knowledge: knowledge,
	}
}

var errNoHistoryAddress = errors.New("no address to look up correspondence for")

// Gather resolves the thread and fetches history and knowledge concurrently.
// A thread failure is returned as *reply.FatalGatherError; history and
// knowledge failures are reported as warnings with empty values.
func (o *Orchestrator) Gather(ctx context.Context, req Request) (Gathered, []reply.Warning, error) {
	ctx, span := observability.Tracer().Start(ctx, "gather.Gather")
	defer span.End()

	var (
		out          Gathered
		historyErr   error
		knowledgeErr error
	)

	address := ""
	if addrs := Addresses(req.Instructions); len(addrs) > 0 {
		address = addrs[0]
	}
	topic := KnowledgeTopic(req)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		thread, err := o.resolveThread(gctx, req)
		if err != nil {
			return &reply.FatalGatherError{Err: err}
		}
		out.Thread = thread

		if address == "" {
			out.History, historyErr = o.fetchHistory(gctx, thread.PrimaryRecipient)
		}
		return nil
	})

	if address != "" {
		g.Go(func() error {
			out.History, historyErr = o.fetchHistory(gctx, address)
			return nil
		})
	}

	g.Go(func() error {
		out.Knowledge, knowledgeErr = o.fetchKnowledge(gctx, topic)
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Gathered{}, nil, err
	}

	var warnings []reply.Warning
	if historyErr != nil || out.History.Empty() {
		log.Printf("gather: history unavailable for %q: %v", out.History.Address, historyErr)
		warnings = append(warnings, reply.PartialSourceError(reply.SourceHistory, historyErr))
		out.History = reply.CorrespondenceSummary{}
	}
	if knowledgeErr != nil || len(out.Knowledge) == 0 {
		log.Printf("gather: no knowledge for topic %q: %v", topic, knowledgeErr)
		warnings = append(warnings, reply.PartialSourceError(reply.SourceKnowledge, knowledgeErr))
		out.Knowledge = nil
	}

	span.SetAttributes(
		attribute.String("thread.id", out.Thread.ThreadID),
		attribute.Int("warnings", len(warnings)),
	)

	return out, warnings, nil
}

func (o *Orchestrator) resolveThread(ctx context.Context, req Request) (reply.ThreadContext, error) {
	if req.ThreadHint != "" {
		thread, err := o.threads.FetchThread(ctx, req.ThreadHint)
		if err != nil {
			observability.RecordSourceFetch("thread", "error")
			return reply.ThreadContext{}, fmt.Errorf("threads.FetchThread failed: %w", err)
		}
		observability.RecordSourceFetch("thread", "ok")
		return thread, nil
	}

	query := SearchQuery(req.Instructions)
	if query == "" {
		return reply.ThreadContext{}, &reply.NotFoundError{}
	}

	candidates, err := o.threads.SearchThreads(ctx, query, MaxCandidates)
	if err != nil {
		observability.RecordSourceFetch("thread", "error")
		return reply.ThreadContext{}, fmt.Errorf("threads.SearchThreads failed: %w", err)
	}
	if len(candidates) == 0 {
		observability.RecordSourceFetch("thread", "empty")
		return reply.ThreadContext{}, &reply.NotFoundError{Query: query}
	}

	best, tied := Rank(candidates, req.Instructions)
	if len(tied) > 0 {
		observability.RecordSourceFetch("thread", "ambiguous")
		return reply.ThreadContext{}, &reply.AmbiguousTargetError{Query: query, Candidates: tied}
	}

	thread, err := o.threads.FetchThread(ctx, best.ThreadID)
	if err != nil {
		observability.RecordSourceFetch("thread", "error")
		return reply.ThreadContext{}, fmt.Errorf("threads.FetchThread failed: %w", err)
	}
	observability.RecordSourceFetch("thread", "ok")

	return thread, nil
}

func (o *Orchestrator) fetchHistory(ctx context.Context, address string) (reply.CorrespondenceSummary, error) {
	if address == "" {
		observability.RecordSourceFetch(reply.SourceHistory, "empty")
		return reply.CorrespondenceSummary{}, errNoHistoryAddress
	}
	if o.history == nil {
		return reply.CorrespondenceSummary{Address: address}, nil
	}

	summary, err := o.history.FetchHistory(ctx, address)
	if err != nil {
		observability.RecordSourceFetch(reply.SourceHistory, "error")
		return reply.CorrespondenceSummary{Address: address}, fmt.Errorf("history.FetchHistory failed: %w", err)
	}
	if summary.Empty() {
		observability.RecordSourceFetch(reply.SourceHistory, "empty")
	} else {
		observability.RecordSourceFetch(reply.SourceHistory, "ok")
	}
	summary.Address = address

	return summary, nil
}

func (o *Orchestrator) fetchKnowledge(ctx context.Context, topic string) ([]reply.KnowledgeSnippet, error) {
	if o.knowledge == nil || topic == "" {
		observability.RecordSourceFetch(reply.SourceKnowledge, "empty")
		return nil, nil
	}

	snippets, err := o.knowledge.Search(ctx, topic)
	if err != nil {
		observability.RecordSourceFetch(reply.SourceKnowledge, "error")
		return nil, fmt.Errorf("knowledge.Search failed: %w", err)
	}
	if len(snippets) == 0 {
		observability.RecordSourceFetch(reply.SourceKnowledge, "empty")
	} else {
		observability.RecordSourceFetch(reply.SourceKnowledge, "ok")
	}

	return snippets, nil
}
