package service

import (
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
)

func toModelTeam(t *repository.Team, members []*repository.Member) *model.Team {
	createdAt := t.CreatedAt

	res := &model.Team{
		Identifier: t.Identifier,
		Name:       t.Name,
		Leader:     &model.Member{Name: t.LeaderName, Email: t.LeaderEmail},
		Members:    make([]*model.Member, 0, len(members)),
		College:    t.College,
		Track:      t.Track,
		Verified:   t.Verified,
		Qualified:  t.Qualified,
		CreatedAt:  &createdAt,
	}

	for _, m := range members {
		res.Members = append(res.Members, &model.Member{Name: m.Name, Email: m.Email})
	}

	return res
}

func toExportRow(t *repository.Team) *model.ExportRow {
	return &model.ExportRow{
		Name:       t.Name,
		Identifier: t.Identifier,
		College:    t.College,
		Track:      t.Track,
		Verified:   t.Verified,
		Qualified:  t.Qualified,
	}
}
