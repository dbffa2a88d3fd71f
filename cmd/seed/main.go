// The seed binary loads a demo tenant into DynamoDB (LocalStack or real) so
// the API has something to serve during development: a salon catalog, weekly
// schedules for every provider, and the default booking workflow.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"

	"github.com/turnoflow/booking-platform/cmd/mainconfig"
	"github.com/turnoflow/booking-platform/internal/app/bootstrap"
	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/catalog"
	appconfig "github.com/turnoflow/booking-platform/internal/config"
	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/workflow"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

func main() {
	tenantID := flag.String("tenant", "tnt_demo", "tenant id to seed")
	extraProviders := flag.Int("extra-providers", 0, "additional random providers to generate")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	client := dynamodb.NewFromConfig(awsCfg)

	store := bootstrap.BuildCatalogStore(client, cfg, logger)
	schedules := bootstrap.BuildScheduleRepository(client, cfg, logger)
	workflows := bootstrap.BuildWorkflowStore(client, cfg, logger)

	if err := seed(ctx, *tenantID, *extraProviders, store, schedules, workflows, logger); err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("demo data seeded", "tenant_id", *tenantID)
}

type catalogWriter interface {
	PutTenant(ctx context.Context, t *catalog.Tenant) error
	PutService(ctx context.Context, svc *catalog.Service) error
	PutProvider(ctx context.Context, p *catalog.Provider) error
	PutFAQ(ctx context.Context, f *catalog.FAQ) error
}

func seed(ctx context.Context, tenantID string, extraProviders int, store catalogWriter, schedules availability.Repository, workflows workflow.WorkflowStore, logger *logging.Logger) error {
	now := time.Now().UTC()

	tenant := &catalog.Tenant{
		ID:           tenantID,
		Name:         "Peluquería Demo",
		Slug:         "peluqueria-demo",
		Status:       catalog.TenantActive,
		Plan:         catalog.PlanPro,
		BillingEmail: "demo@turnoflow.io",
		CreatedAt:    now,
	}
	if err := store.PutTenant(ctx, tenant); err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	services := []*catalog.Service{
		{ID: "svc_corte", TenantID: tenantID, Name: "Corte de pelo", Category: "Peluquería", DurationMinutes: 30, PriceCents: 2500, Currency: "EUR", Active: true},
		{ID: "svc_color", TenantID: tenantID, Name: "Coloración", Category: "Peluquería", DurationMinutes: 90, PriceCents: 6500, Currency: "EUR", Active: true},
		{ID: "svc_manicura", TenantID: tenantID, Name: "Manicura", Category: "Estética", DurationMinutes: 45, PriceCents: 3000, Currency: "EUR", Active: true},
	}
	for _, svc := range services {
		if err := store.PutService(ctx, svc); err != nil {
			return fmt.Errorf("seed service %s: %w", svc.ID, err)
		}
	}

	providers := []*catalog.Provider{
		{ID: "prv_ana", TenantID: tenantID, Name: "Ana", ServiceIDs: []string{"svc_corte", "svc_color"}, Timezone: "Europe/Madrid", Active: true},
		{ID: "prv_luis", TenantID: tenantID, Name: "Luis", ServiceIDs: []string{"svc_corte"}, Timezone: "Europe/Madrid", Active: true},
		{ID: "prv_marta", TenantID: tenantID, Name: "Marta", ServiceIDs: []string{"svc_manicura"}, Timezone: "Europe/Madrid", Active: true},
	}
	for i := 0; i < extraProviders; i++ {
		providers = append(providers, &catalog.Provider{
			ID:         domain.NewID("prv"),
			TenantID:   tenantID,
			Name:       gofakeit.FirstName(),
			Bio:        gofakeit.Sentence(8),
			ServiceIDs: []string{services[gofakeit.Number(0, len(services)-1)].ID},
			Timezone:   "Europe/Madrid",
			Active:     true,
		})
	}
	for _, p := range providers {
		if err := store.PutProvider(ctx, p); err != nil {
			return fmt.Errorf("seed provider %s: %w", p.ID, err)
		}
		if err := schedules.PutWeeklyRules(ctx, tenantID, p.ID, defaultWeek(tenantID, p.ID)); err != nil {
			return fmt.Errorf("seed schedule %s: %w", p.ID, err)
		}
	}

	faqs := []*catalog.FAQ{
		{ID: "faq_horario", TenantID: tenantID, Question: "¿Cuál es vuestro horario?", Answer: "De lunes a viernes, de 09:00 a 19:00.", Active: true},
		{ID: "faq_ubicacion", TenantID: tenantID, Question: "¿Dónde estáis?", Answer: "Calle Mayor 12, Madrid.", Active: true},
		{ID: "faq_cancelacion", TenantID: tenantID, Question: "¿Puedo cancelar mi cita?", Answer: "Sí, hasta 24 horas antes sin coste.", Active: true},
	}
	for _, f := range faqs {
		if err := store.PutFAQ(ctx, f); err != nil {
			return fmt.Errorf("seed faq %s: %w", f.ID, err)
		}
	}

	manager := workflow.NewManager(workflows, logger, nil)
	if _, err := manager.EnsureDefault(ctx, tenantID); err != nil {
		return fmt.Errorf("seed workflow: %w", err)
	}

	return nil
}

// defaultWeek is Monday to Friday 09:00-19:00 with a lunch break, Saturday
// mornings only.
func defaultWeek(tenantID, providerID string) []availability.WeeklyRule {
	weekdays := []string{
		availability.Monday, availability.Tuesday, availability.Wednesday,
		availability.Thursday, availability.Friday,
	}
	rules := make([]availability.WeeklyRule, 0, len(weekdays)+1)
	for _, day := range weekdays {
		rules = append(rules, availability.WeeklyRule{
			TenantID:   tenantID,
			ProviderID: providerID,
			DayOfWeek:  day,
			Ranges:     []availability.TimeRange{{Start: "09:00", End: "19:00"}},
			Breaks:     []availability.TimeRange{{Start: "14:00", End: "15:00"}},
		})
	}
	rules = append(rules, availability.WeeklyRule{
		TenantID:   tenantID,
		ProviderID: providerID,
		DayOfWeek:  availability.Saturday,
		Ranges:     []availability.TimeRange{{Start: "10:00", End: "14:00"}},
	})
	return rules
}
