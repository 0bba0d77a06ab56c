package memory

import (
	"testing"

	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) league.Repository { return New() })
}
