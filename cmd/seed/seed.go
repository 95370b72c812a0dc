package main

import (
	"context"
	"fmt"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/logger"
)

// seeder inserts one agenda with its events unless the id is taken
type seeder interface {
	Seed(ctx context.Context, id int64, in models.AgendaInput, events []models.EventInput) (bool, error)
}

// seedProgramme inserts every agenda of prog in order and stops at the
// first failure. Agendas already present are skipped.
func seedProgramme(ctx context.Context, s seeder, prog *programme, log *logger.Logger) (seeded, skipped int, err error) {
	for _, a := range prog.Agendas {
		inserted, err := s.Seed(ctx, a.ID, a.AgendaInput, a.Events)
		if err != nil {
			return seeded, skipped, fmt.Errorf("failed to seed agenda %d: %w", a.ID, err)
		}
		if !inserted {
			log.Info("Agenda already present, skipped", "agenda_id", a.ID)
			skipped++
			continue
		}
		log.Info("Agenda seeded", "agenda_id", a.ID, "events", len(a.Events))
		seeded++
	}
	return seeded, skipped, nil
}
