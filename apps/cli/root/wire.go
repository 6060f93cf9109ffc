package root

import (
	"github.com/cardledger/cardledger/apps/cli/cmd/auth"
	"github.com/cardledger/cardledger/apps/cli/cmd/cards"
	"github.com/cardledger/cardledger/apps/cli/cmd/slug"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(slug.Command())
	Root().AddCommand(cards.Command())
}
