package cmd

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/portal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var listAllCards bool

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List virtual cards",
	Long:  `Lists the signed-in user's cards. Admins can list every card with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}

			list := p.Cards.MyCards
			if listAllCards {
				list = p.Cards.AdminCards
			}
			all, err := list(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list cards: %w", err)
			}
			if len(all) == 0 {
				pterm.Info.Println("No cards")
				return nil
			}
			renderCards(all)
			return nil
		})
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate <card-id>",
	Short: "Activate a pending or blocked card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeCard(cmd, args[0], "activated", func(p *portal.Portal, id int) (*cards.Card, error) {
			return p.Cards.Activate(cmd.Context(), id)
		})
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <card-id>",
	Short: "Block a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeCard(cmd, args[0], "blocked", func(p *portal.Portal, id int) (*cards.Card, error) {
			return p.Cards.Deactivate(cmd.Context(), id)
		})
	},
}

var cardStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show card statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}

			if p.Auth.IsAdmin() {
				stats, err := p.Cards.AdminStats(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load stats: %w", err)
				}
				_ = pterm.DefaultTable.WithData(pterm.TableData{
					{"TOTAL", "ACTIVE", "BLOCKED", "PENDING REQUESTS", "APPROVED", "REJECTED", "BALANCE"},
					{itoa(stats.TotalCards), itoa(stats.ActiveCards), itoa(stats.BlockedCards),
						itoa(stats.PendingRequests), itoa(stats.ApprovedRequests), itoa(stats.RejectedRequests),
						stats.TotalBalance.String()},
				}).WithHasHeader().Render()
				return nil
			}

			stats, err := p.Cards.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			_ = pterm.DefaultTable.WithData(pterm.TableData{
				{"TOTAL", "ACTIVE", "BLOCKED", "PENDING", "BALANCE"},
				{itoa(stats.TotalCards), itoa(stats.ActiveCards), itoa(stats.BlockedCards), itoa(stats.PendingCards),
					stats.TotalBalance.String()},
			}).WithHasHeader().Render()
			return nil
		})
	},
}

func changeCard(cmd *cobra.Command, rawID, verb string, action func(p *portal.Portal, id int) (*cards.Card, error)) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("invalid card id %q", rawID)
	}
	return withPortal(cmd, func(p *portal.Portal) error {
		if err := requireSession(p); err != nil {
			return err
		}
		card, err := action(p, id)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Card %s %s (%s)\n", card.MaskedNumber, verb, card.Status)
		return nil
	})
}

func renderCards(all []cards.Card) {
	table := pterm.TableData{{"ID", "NAME", "NUMBER", "TYPE", "STATUS", "EXPIRES", "BALANCE", "LIMIT"}}
	for _, c := range all {
		table = append(table, []string{
			itoa(c.ID), c.CardName, c.MaskedNumber, string(c.CardType), string(c.Status),
			c.ExpiresOn.String(), c.Balance.String(), c.CreditLimit.String(),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func init() {
	cardsCmd.Flags().BoolVar(&listAllCards, "all", false, "List every card (admins only)")
	cardsCmd.AddCommand(activateCmd)
	cardsCmd.AddCommand(deactivateCmd)
	cardsCmd.AddCommand(cardStatsCmd)
}
