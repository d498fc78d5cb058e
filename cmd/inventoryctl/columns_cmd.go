package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/repository"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

type addNamesOutput struct {
	Command        string          `json:"command"`
	InventoryType  string          `json:"inventory_type"`
	Columns        []models.Column `json:"columns"`
	OrganizationID int64           `json:"organization_id"`
}

func newColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Manage column metadata",
	}
	cmd.AddCommand(newAddNamesCmd())
	return cmd
}

func newAddNamesCmd() *cobra.Command {
	var (
		orgID         int64
		inventoryType string
		inventoryPK   string
	)

	cmd := &cobra.Command{
		Use:   "add-names",
		Short: "Register the extra_data keys of a state as columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID < 1 {
				return fmt.Errorf("invalid --org: %d", orgID)
			}

			_, db, log, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := services.NewColumnService(
				repository.NewColumnRepository(db),
				repository.NewColumnMappingRepository(db),
				repository.NewColumnListSettingRepository(db),
				repository.NewOrganizationRepository(db),
				log,
			)

			columns, err := svc.AddColumnNames(cmd.Context(), orgID, inventoryType, inventoryPK)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), addNamesOutput{
				Command:        "columns add-names",
				OrganizationID: orgID,
				InventoryType:  inventoryType,
				Columns:        columns,
			})
		},
	}

	cmd.Flags().Int64Var(&orgID, "org", 0, "Organization id (required)")
	cmd.Flags().StringVar(&inventoryType, "inventory-type", services.InventoryTypeProperty, "property, propertystate, taxlot or taxlotstate")
	cmd.Flags().StringVar(&inventoryPK, "pk", "", "State id (default: the organization's newest state)")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
