package services

import (
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/platform/config"
)

// Repositories bundles the persistence facades the services depend on.
type Repositories struct {
	Counterparties portsrepo.CounterpartyRepositoryFacade
	Assignors      portsrepo.AssignorRepositoryFacade
	Instruments    portsrepo.InstrumentRepositoryFacade
	Operations     portsrepo.OperationRepositoryFacade
	Charges        portsrepo.ChargeRepositoryFacade
	Critiques      portsrepo.CritiqueRepositoryFacade
}

// Collaborators bundles the external-system adapters.
type Collaborators struct {
	Gateway    portsvc.ChargeGateway
	Reposter   portsvc.LedgerReposter
	Settlement portsvc.SettlementAcceptor
	Dispatcher portsvc.NotificationDispatcher
	Statements portsvc.StatementSource
}

// Container wires every service with its dependencies.
type Container struct {
	Charges    portsvc.ChargeLedgerSvcFacade
	Operations portsvc.OperationSvcFacade
	Matcher    portsvc.MatcherSvcFacade
	Onboarding portsvc.OnboardingSvcFacade
}

// NewContainer builds the service graph.
func NewContainer(cfg *config.Config, repos Repositories, collab Collaborators) *Container {
	charges := NewChargeService(repos.Charges, repos.Counterparties, repos.Assignors, collab.Dispatcher)
	operations := NewOperationService(repos.Operations, repos.Instruments, repos.Counterparties, repos.Critiques, collab.Settlement)
	matcher := NewMatcherService(repos.Charges, charges, operations, collab.Reposter, cfg.RepostHorizon)
	onboarding := NewOnboardingService(repos.Counterparties, repos.Assignors, repos.Instruments)

	return &Container{
		Charges:    charges,
		Operations: operations,
		Matcher:    matcher,
		Onboarding: onboarding,
	}
}
