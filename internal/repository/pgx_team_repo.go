package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/hackathon-portal/internal/db"
)

const uniqueViolation = "23505"

type Team struct {
	ID          string    `db:"id"`
	Identifier  string    `db:"identifier"`
	Name        string    `db:"name"`
	LeaderName  string    `db:"leader_name"`
	LeaderEmail string    `db:"leader_email"`
	College     string    `db:"college"`
	Track       string    `db:"track"`
	Verified    bool      `db:"verified"`
	Qualified   bool      `db:"qualified"`
	CreatedAt   time.Time `db:"created_at"`
}

type Member struct {
	TeamID   string `db:"team_id"`
	Position int16  `db:"position"`
	Name     string `db:"name"`
	Email    string `db:"email"`
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	AddMembers(ctx context.Context, teamID string, members []*Member) error
	GetByIdentifier(ctx context.Context, identifier string) (*Team, error)
	List(ctx context.Context) ([]*Team, error)
	GetMembers(ctx context.Context, teamIDs ...string) (map[string][]*Member, error)
	MarkVerified(ctx context.Context, leaderEmail string) (*Team, error)
	MarkQualified(ctx context.Context, identifier string) (*Team, error)
}

var teamColumns = []any{
	"id", "identifier", "name", "leader_name", "leader_email",
	"college", "track", "verified", "qualified", "created_at",
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

// Create inserts the team row. A duplicate identifier yields ErrAlreadyExists.
func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team", "id", "identifier", "name", "leader_name", "leader_email", "college", "track"),
		im.Values(
			psql.Arg(team.ID),
			psql.Arg(team.Identifier),
			psql.Arg(team.Name),
			psql.Arg(team.LeaderName),
			psql.Arg(team.LeaderEmail),
			psql.Arg(team.College),
			psql.Arg(team.Track),
		),
		im.Returning("verified", "qualified", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&team.Verified, &team.Qualified, &team.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxTeamRepository) AddMembers(ctx context.Context, teamID string, members []*Member) error {
	if len(members) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_member", "team_id", "position", "name", "email"),
	)

	for _, m := range members {
		q.Apply(im.Values(psql.Arg(teamID), psql.Arg(m.Position), psql.Arg(m.Name), psql.Arg(m.Email)))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxTeamRepository) GetByIdentifier(ctx context.Context, identifier string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns...),
		sm.From("team"),
		sm.Where(psql.Quote("identifier").EQ(psql.Arg(identifier))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return scanTeam(e.QueryRow(ctx, sql, args...))
}

func (p *pgxTeamRepository) List(ctx context.Context) ([]*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns...),
		sm.From("team"),
		sm.OrderBy(psql.Quote("created_at")).Asc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Team, error) {
		return scanTeam(row)
	})
}

// GetMembers returns the non-leader members of each team keyed by team id,
// ordered by position.
func (p *pgxTeamRepository) GetMembers(ctx context.Context, teamIDs ...string) (map[string][]*Member, error) {
	res := make(map[string][]*Member, len(teamIDs))
	if len(teamIDs) == 0 {
		return res, nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_id", "position", "name", "email"),
		sm.From("team_member"),
		sm.Where(psql.Raw("team_id = ANY(?)", teamIDs)),
		sm.OrderBy(psql.Quote("team_id")),
		sm.OrderBy(psql.Quote("position")),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Member, error) {
		m := &Member{}
		if err := row.Scan(&m.TeamID, &m.Position, &m.Name, &m.Email); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		res[m.TeamID] = append(res[m.TeamID], m)
	}
	return res, nil
}

// MarkVerified sets verified on the most recently registered team led by
// leaderEmail.
func (p *pgxTeamRepository) MarkVerified(ctx context.Context, leaderEmail string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team"),
		um.SetCol("verified").ToArg(true),
		um.Where(psql.Raw(
			"id = (SELECT id FROM team WHERE leader_email = ? ORDER BY created_at DESC LIMIT 1)",
			leaderEmail,
		)),
		um.Returning(teamColumns...),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return scanTeam(e.QueryRow(ctx, sql, args...))
}

func (p *pgxTeamRepository) MarkQualified(ctx context.Context, identifier string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team"),
		um.SetCol("qualified").ToArg(true),
		um.Where(psql.Quote("identifier").EQ(psql.Arg(identifier))),
		um.Returning(teamColumns...),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return scanTeam(e.QueryRow(ctx, sql, args...))
}

func scanTeam(row pgx.Row) (*Team, error) {
	t := &Team{}
	if err := row.Scan(
		&t.ID,
		&t.Identifier,
		&t.Name,
		&t.LeaderName,
		&t.LeaderEmail,
		&t.College,
		&t.Track,
		&t.Verified,
		&t.Qualified,
		&t.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}
