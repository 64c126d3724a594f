package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
	"github.com/urfave/cli/v2"
)

var seedVoters = []models.Voter{
	{DNI: "12345678", Name: "Luis Morales García", Email: "luis@sedipro.org", Area: models.PositionTI},
	{DNI: "87654321", Name: "Ana Torres Ruiz", Email: "ana@sedipro.org", Area: models.PositionPMO},
	{DNI: "11223344", Name: "Carlos Pérez López", Email: "carlos@sedipro.org", Area: models.PositionGTH},
	{DNI: "44332211", Name: "María Flores Vásquez", Email: "maria@sedipro.org", Area: models.PositionMKT},
	{DNI: "55667788", Name: "Jorge Ramírez Díaz", Email: "jorge@sedipro.org", Area: models.PositionLTKFNZ},
	{DNI: "88776655", Name: "Sofía Castro Mendoza", Email: "sofia@sedipro.org", Area: models.PositionTI},
}

var seedCandidates = []models.Candidate{
	{Name: "Roberto Silva Navarro", Position: models.PositionPMO, PresentationOrder: 1},
	{Name: "Patricia Luna Herrera", Position: models.PositionPMO, PresentationOrder: 2},
	{Name: "Eduardo Ríos Campos", Position: models.PositionGTH, PresentationOrder: 1},
	{Name: "Claudia Vega Torres", Position: models.PositionGTH, PresentationOrder: 2},
	{Name: "Diego Fuentes Paredes", Position: models.PositionMKT, PresentationOrder: 1},
	{Name: "Valeria Mora Sánchez", Position: models.PositionMKT, PresentationOrder: 2},
	{Name: "Andrés Chávez Rojas", Position: models.PositionLTKFNZ, PresentationOrder: 1},
	{Name: "Daniela Ortiz Vargas", Position: models.PositionLTKFNZ, PresentationOrder: 2},
	{Name: "Miguel Ángel Soto Díaz", Position: models.PositionTI, PresentationOrder: 1},
	{Name: "Fernanda Quispe León", Position: models.PositionTI, PresentationOrder: 2},
	{Name: "Alejandro Mendoza Cruz", Position: models.PositionPresidencia, PresentationOrder: 1},
	{Name: "Isabella Vargas Pinto", Position: models.PositionPresidencia, PresentationOrder: 2},
}

// seed inserts the sample candidates and voters that do not exist yet. The
// configuration singleton is created by the schema itself.
func seed(c *cli.Context) error {
	cfg, conn, err := connect(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(c.Context, cfg.GetQueryTimeout())
	defer cancel()

	var candidates, voters int
	err = store.New(conn).InTx(ctx, func(tx *store.Store) error {
		if candidates, err = seedCandidateRows(ctx, tx); err != nil {
			return err
		}
		voters, err = seedVoterRows(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("Candidatos: %d creados, %d ya existían\n", candidates, len(seedCandidates)-candidates)
	fmt.Printf("Votantes: %d creados, %d ya existían\n", voters, len(seedVoters)-voters)

	dnis := make([]string, 0, len(seedVoters))
	for _, v := range seedVoters {
		dnis = append(dnis, v.DNI)
	}
	fmt.Printf("DNIs de prueba: %s\n", strings.Join(dnis, " · "))
	return nil
}

func seedCandidateRows(ctx context.Context, tx *store.Store) (int, error) {
	created := 0
	for _, c := range seedCandidates {
		existing, err := tx.ListCandidates(ctx, store.CandidateFilter{Position: c.Position})
		if err != nil {
			return created, err
		}
		if hasCandidate(existing, c.Name) {
			continue
		}

		c.ID = uuid.NewString()
		c.IsApproved = true
		c.CreatedAt = time.Now().UTC()
		if err := tx.CreateCandidate(ctx, c); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func seedVoterRows(ctx context.Context, tx *store.Store) (int, error) {
	created := 0
	for _, v := range seedVoters {
		_, err := tx.GetVoter(ctx, v.DNI)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}

		v.IsEnabled = true
		v.CreatedAt = time.Now().UTC()
		if err := tx.CreateVoter(ctx, v); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func hasCandidate(candidates []models.Candidate, name string) bool {
	for _, c := range candidates {
		if c.Name == name {
			return true
		}
	}
	return false
}
