package main

import (
	"context"

	gfirestore "cloud.google.com/go/firestore"
	domainassistant "github.com/erp/smarterp/internal/domain/assistant"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/identity"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/firestore"
	"github.com/erp/smarterp/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// keyedRepository is a repository that also stores records under chosen keys
type keyedRepository[T any] interface {
	shared.Repository[T]
	shared.KeyedWriter[T]
}

// repositories are the collections of the configured document store
type repositories struct {
	customers  shared.Repository[partner.Customer]
	products   shared.Repository[catalog.Product]
	orders     shared.Repository[trade.Order]
	invoices   shared.Repository[finance.Invoice]
	payments   shared.Repository[finance.Payment]
	kpis       shared.Repository[report.KPI]
	narratives shared.Repository[report.Narrative]
	events     shared.Repository[audit.Event]
	chats      keyedRepository[domainassistant.ChatSession]
	users      keyedRepository[identity.UserProfile]
}

func firestoreRepositories(client *gfirestore.Client) *repositories {
	return &repositories{
		customers:  firestore.NewRepository[partner.Customer](client, partner.CollectionCustomers),
		products:   firestore.NewRepository[catalog.Product](client, catalog.CollectionProducts),
		orders:     firestore.NewRepository[trade.Order](client, trade.CollectionOrders),
		invoices:   firestore.NewRepository[finance.Invoice](client, finance.CollectionInvoices),
		payments:   firestore.NewRepository[finance.Payment](client, finance.CollectionPayments),
		kpis:       firestore.NewRepository[report.KPI](client, report.CollectionKPI),
		narratives: firestore.NewRepository[report.Narrative](client, report.CollectionNarratives),
		events:     firestore.NewRepository[audit.Event](client, audit.CollectionEvents),
		chats:      firestore.NewRepository[domainassistant.ChatSession](client, domainassistant.CollectionChats),
		users:      firestore.NewRepository[identity.UserProfile](client, identity.CollectionUsers),
	}
}

func sqlRepositories(db *gorm.DB) *repositories {
	return &repositories{
		customers:  persistence.NewDocumentRepository[partner.Customer](db, partner.CollectionCustomers),
		products:   persistence.NewDocumentRepository[catalog.Product](db, catalog.CollectionProducts),
		orders:     persistence.NewDocumentRepository[trade.Order](db, trade.CollectionOrders),
		invoices:   persistence.NewDocumentRepository[finance.Invoice](db, finance.CollectionInvoices),
		payments:   persistence.NewDocumentRepository[finance.Payment](db, finance.CollectionPayments),
		kpis:       persistence.NewDocumentRepository[report.KPI](db, report.CollectionKPI),
		narratives: persistence.NewDocumentRepository[report.Narrative](db, report.CollectionNarratives),
		events:     persistence.NewDocumentRepository[audit.Event](db, audit.CollectionEvents),
		chats:      persistence.NewDocumentRepository[domainassistant.ChatSession](db, domainassistant.CollectionChats),
		users:      persistence.NewDocumentRepository[identity.UserProfile](db, identity.CollectionUsers),
	}
}

// ping reads one profile, which exercises the store for either backend
func (r *repositories) ping(ctx context.Context) error {
	_, err := r.users.GetAll(ctx, shared.NewQuery().Limit(1))
	return err
}
