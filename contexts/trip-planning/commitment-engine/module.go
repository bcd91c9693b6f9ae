package commitmentengine

import (
	"log/slog"

	httpadapter "tripweave/contexts/trip-planning/commitment-engine/adapters/http"
	"tripweave/contexts/trip-planning/commitment-engine/adapters/memory"
	"tripweave/contexts/trip-planning/commitment-engine/application/commands"
	"tripweave/contexts/trip-planning/commitment-engine/application/queries"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Directory ports.TripDirectory
	Votes     ports.VoteRepository
	Proposals ports.ProposalRepository
	Commits   ports.CommitRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commitUseCase := commands.CommitUseCase{
		Directory: deps.Directory,
		Votes:     deps.Votes,
		Proposals: deps.Proposals,
		Commits:   deps.Commits,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Directory: deps.Directory,
		Votes:     deps.Votes,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	proposalUseCase := commands.ProposalUseCase{
		Directory: deps.Directory,
		Proposals: deps.Proposals,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commits:   commitUseCase,
			Votes:     voteUseCase,
			Proposals: proposalUseCase,
			Tally:     queries.TallyUseCase{Votes: deps.Votes},
			Board: queries.BoardUseCase{
				Proposals: deps.Proposals,
				Commits:   deps.Commits,
			},
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to the memory store; tests seed trips,
// members, and blocks through Module.Store.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Directory: store,
		Votes:     store,
		Proposals: store,
		Commits:   store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
