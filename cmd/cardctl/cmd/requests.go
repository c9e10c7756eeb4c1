package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/portal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	listAllRequests bool

	newRequest      cards.NewRequest
	newRequestType  string
	newRequestDOB   string
	newRequestLimit float64

	reviewApprove bool
	reviewReject  bool
	reviewComment string
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List card requests",
	Long:  `Lists the signed-in user's card requests. Admins can list every request with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}

			list := p.Cards.MyRequests
			if listAllRequests {
				list = p.Cards.AdminRequests
			}
			all, err := list(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list requests: %w", err)
			}
			if len(all) == 0 {
				pterm.Info.Println("No card requests")
				return nil
			}

			table := pterm.TableData{{"ID", "REQUESTER", "NAME", "TYPE", "LIMIT", "STATUS", "CREATED"}}
			for _, r := range all {
				requester := "-"
				if r.UserDetails != nil {
					requester = r.UserDetails.Email
				}
				table = append(table, []string{
					itoa(r.ID), requester, r.CardName, string(r.CardType), r.RequestedLimit.String(),
					string(r.Status), r.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
			return nil
		})
	},
}

var newRequestCmd = &cobra.Command{
	Use:   "new",
	Short: "Request a new virtual card",
	RunE: func(cmd *cobra.Command, args []string) error {
		dob, err := utils.ParseDate(newRequestDOB)
		if err != nil {
			return fmt.Errorf("invalid --date-of-birth %q, expected YYYY-MM-DD", newRequestDOB)
		}
		newRequest.CardType = cards.Type(newRequestType)
		newRequest.DateOfBirth = dob
		newRequest.RequestedLimit = utils.DecimalFromFloat(newRequestLimit)

		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}
			created, err := p.Cards.RequestCard(cmd.Context(), newRequest)
			if err != nil {
				return fmt.Errorf("card request refused: %w", err)
			}
			pterm.Success.Printf("Request %d for '%s' submitted for review\n", created.ID, created.CardName)
			return nil
		})
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <request-id>",
	Short: "Approve or reject a card request (admins only)",
	Long: `Approves or rejects a pending card request. Approvals are checked against the
approval rules first and every failed rule is listed when one does not hold.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid request id %q", args[0])
		}
		if reviewApprove == reviewReject {
			return errors.New("pass exactly one of --approve or --reject")
		}
		review := cards.Review{Status: cards.RequestRejected, AdminComments: reviewComment}
		if reviewApprove {
			review.Status = cards.RequestApproved
		}

		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}

			reviewed, err := p.Cards.ReviewRequest(cmd.Context(), id, review)
			var refused *cards.ApprovalRejectedError
			if errors.As(err, &refused) {
				pterm.Error.Printf("Request %d cannot be approved:\n", id)
				for _, cond := range refused.Check.Failed() {
					pterm.Println("  - " + cond.Message)
				}
				return fmt.Errorf("approval refused: %d rule(s) failed", len(refused.Check.Failed()))
			}
			if err != nil {
				return err
			}
			pterm.Success.Printf("Request %d %s\n", reviewed.ID, reviewed.Status)
			return nil
		})
	},
}

func init() {
	requestsCmd.Flags().BoolVar(&listAllRequests, "all", false, "List every request (admins only)")

	newRequestCmd.Flags().StringVar(&newRequestType, "type", string(cards.TypePersonal), "Card type: shopping, travel, business or personal")
	newRequestCmd.Flags().StringVar(&newRequest.CardName, "name", "", "Card name")
	newRequestCmd.Flags().Float64Var(&newRequestLimit, "limit", 1000, "Requested credit limit")
	newRequestCmd.Flags().StringVar(&newRequestDOB, "date-of-birth", "", "Date of birth, YYYY-MM-DD")
	newRequestCmd.Flags().StringVar(&newRequest.Reason, "reason", "", "Why the card is needed")
	newRequestCmd.Flags().StringVar(&newRequest.Profession, "profession", "", "Profession")
	newRequestCmd.Flags().StringVar(&newRequest.IdentityDocument, "identity-document", "", "Uploaded identity document reference")
	newRequestCmd.Flags().StringVar(&newRequest.IncomeProof, "income-proof", "", "Uploaded proof of income reference")
	_ = newRequestCmd.MarkFlagRequired("name")
	_ = newRequestCmd.MarkFlagRequired("date-of-birth")
	_ = newRequestCmd.MarkFlagRequired("reason")

	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "Approve the request")
	reviewCmd.Flags().BoolVar(&reviewReject, "reject", false, "Reject the request")
	reviewCmd.Flags().StringVar(&reviewComment, "comment", "", "Comment sent to the requester")

	requestsCmd.AddCommand(newRequestCmd)
	requestsCmd.AddCommand(reviewCmd)
}
