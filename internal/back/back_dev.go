package back

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// LoadFixtures creates a handful of rated and available players for quick
// testing during development.
func (b *Back) LoadFixtures() error {
	fixtures := []struct {
		name   string
		rating float64
	}{
		{"Lin Dan", 1820},
		{"Taufik", 1760},
		{"Carolina", 1705},
		{"Viktor", 1650},
		{"Tai Tzu-ying", 1600},
		{"Momota", 1540},
		{"Ratchanok", 1480},
		{"Saina", 1420},
		{"Lee Chong Wei", 1390},
		{"Shuttlecock Steve", 1200},
	}

	return b.transaction(func(tx *sqlx.Tx) error {
		now := time.Now()
		for _, v := range fixtures {
			if err := ensureNameIsFree(tx, v.name, 0); err != nil {
				log.Printf("debug: skipping fixture %s: %s", v.name, err)
				continue
			}

			player := NewPlayer(PlayerInput{DisplayName: v.name, FirstName: null.StringFrom(v.name)})
			if err := player.insert(tx); err != nil {
				return err
			}

			if _, err := setRating(tx, player.ID, v.rating, reasonInitialSetup, now); err != nil {
				return err
			}

			if err := addAvailable(tx, []int64{player.ID}); err != nil {
				return err
			}
		}

		return nil
	})
}
