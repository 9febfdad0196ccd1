package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/khmerdata/registry/internal/auth"
	"github.com/khmerdata/registry/internal/config"
	"github.com/khmerdata/registry/internal/db"
	"github.com/khmerdata/registry/internal/location"
	"github.com/khmerdata/registry/internal/person"
)

// The 25 provinces of Cambodia. Manager usernames derive from these
// (lowercase, spaces to underscores).
var provinces = []string{
	"Banteay Meanchey", "Battambang", "Kampong Cham",
	"Kampong Chhnang", "Kampong Speu", "Kampong Thom",
	"Kampot", "Kandal", "Koh Kong", "Kratie",
	"Mondul Kiri", "Phnom Penh", "Preah Vihear",
	"Prey Veng", "Pursat", "Ratanak Kiri",
	"Siemreap", "Preah Sihanouk", "Stung Treng",
	"Svay Rieng", "Takeo", "Oddar Meanchey",
	"Kep", "Pailin", "Tboung Khmum",
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	var (
		adminPassword   = flag.String("admin-password", "admin123", "password for the super admin account")
		managerPassword = flag.String("manager-password", "manager123", "password for the province manager accounts")
		peopleCount     = flag.Int("people", 0, "number of synthetic residents to generate (0 skips)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := seedUsers(ctx, pool, *adminPassword, *managerPassword); err != nil {
		return err
	}

	if *peopleCount > 0 {
		if err := seedPeople(ctx, pool, cfg.LocationsPath, *peopleCount); err != nil {
			return err
		}
	}

	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, adminPassword, managerPassword string) error {
	const insert = `
		INSERT INTO users (username, password_hash, role, province)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING`

	adminHash, err := auth.Hash(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	tag, err := pool.Exec(ctx, insert, "admin", adminHash, "super_admin", nil)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	if tag.RowsAffected() > 0 {
		log.Info().Msg("super admin created (username: admin)")
	}

	for _, province := range provinces {
		username := managerUsername(province)

		hash, err := auth.Hash(managerPassword)
		if err != nil {
			return fmt.Errorf("hash manager password: %w", err)
		}

		tag, err := pool.Exec(ctx, insert, username, hash, "manager", province)
		if err != nil {
			return fmt.Errorf("insert manager %s: %w", username, err)
		}
		if tag.RowsAffected() > 0 {
			log.Info().Str("username", username).Str("province", province).Msg("manager created")
		}
	}

	return nil
}

func seedPeople(ctx context.Context, pool *pgxpool.Pool, locationsPath string, count int) error {
	index, err := location.Load(locationsPath)
	if err != nil {
		return fmt.Errorf("locations: %w", err)
	}

	places := flattenLocations(index.All())
	if len(places) == 0 {
		return fmt.Errorf("no locations in %s; cannot generate residents", locationsPath)
	}

	people := person.NewRepository(pool)

	const batchSize = 10000
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var inserted int64
	for inserted < int64(count) {
		n := batchSize
		if remaining := int64(count) - inserted; remaining < int64(n) {
			n = int(remaining)
		}

		batch := make([]person.Person, 0, n)
		for i := 0; i < n; i++ {
			batch = append(batch, randomPerson(rng, places))
		}

		copied, err := people.BulkInsert(ctx, batch)
		if err != nil {
			return fmt.Errorf("bulk insert: %w", err)
		}
		inserted += copied
		log.Info().Int64("inserted", inserted).Msg("generating residents")
	}

	log.Info().Int64("total", inserted).Msg("resident generation done")
	return nil
}

type place struct {
	province, district, commune, village string
}

func flattenLocations(h location.Hierarchy) []place {
	var out []place
	for province, districts := range h {
		for district, communes := range districts {
			for commune, villages := range communes {
				for _, village := range villages {
					out = append(out, place{province, district, commune, village})
				}
			}
		}
	}
	return out
}

func randomPerson(rng *rand.Rand, places []place) person.Person {
	loc := places[rng.Intn(len(places))]

	gender := person.GenderMale
	firstNames := maleFirstNames
	if rng.Intn(2) == 0 {
		gender = person.GenderFemale
		firstNames = femaleFirstNames
	}

	first := firstNames[rng.Intn(len(firstNames))]
	last := surnames[rng.Intn(len(surnames))]

	return person.Person{
		Name:      first + " " + last,
		FirstName: first,
		LastName:  last,
		Gender:    gender,
		Age:       15 + rng.Intn(46),
		Province:  loc.province,
		District:  loc.district,
		Commune:   loc.commune,
		Village:   loc.village,
	}
}

func managerUsername(province string) string {
	out := make([]rune, 0, len(province))
	for _, r := range province {
		switch {
		case r == ' ':
			out = append(out, '_')
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
