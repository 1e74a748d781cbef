package checks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"motodealer-backend-tests/api"
	"motodealer-backend-tests/fixture"
	"motodealer-backend-tests/report"
	"motodealer-backend-tests/rest"
)

// TenantColumn scopes every business table to a dealership
const TenantColumn = "dealership_id"

// CRUDScenario describes the create, read, update and delete round trip for one table
type CRUDScenario struct {
	// Label prefixes result names, e.g. "Categories CREATE"
	Label string
	// Singular is used in messages, e.g. "category"
	Singular string
	Table    string
	// NameColumn is reported after a successful create
	NameColumn string
	Payload    func(tenantID, parentID string) rest.Row
	// Update is sent as a PATCH when set
	Update rest.Row

	// Parent is created first and its id passed to Payload
	Parent *CRUDScenario
	// ParentMissing is the failure message when the parent cannot be created
	ParentMissing string
}

func (s CRUDScenario) idDetail() string {
	return s.Singular + "_id"
}

func (s CRUDScenario) crudName() string {
	return s.Label + " CRUD"
}

// DefaultScenarios returns the business entities of a dealership
func DefaultScenarios() []CRUDScenario {
	parent := &CRUDScenario{
		Label:      "Categories",
		Singular:   "category",
		Table:      "categories",
		NameColumn: "name",
		Payload: func(tenantID, _ string) rest.Row {
			return rest.Row{
				TenantColumn:  tenantID,
				"name":        "Motos Parent",
				"slug":        "motos-parent",
				"description": "Categoría padre para subcategorías",
			}
		},
	}

	return []CRUDScenario{
		{
			Label:      "Categories",
			Singular:   "category",
			Table:      "categories",
			NameColumn: "name",
			Payload: func(tenantID, _ string) rest.Row {
				return rest.Row{
					TenantColumn:  tenantID,
					"name":        "Motos Test",
					"slug":        "motos-test",
					"description": "Categoría de prueba para motos",
				}
			},
			Update: rest.Row{"description": "Categoría actualizada de prueba"},
		},
		{
			Label:      "Subcategories",
			Singular:   "subcategory",
			Table:      "subcategories",
			NameColumn: "name",
			Payload: func(tenantID, parentID string) rest.Row {
				return rest.Row{
					TenantColumn:  tenantID,
					"category_id": parentID,
					"name":        "Clásicas Test",
					"slug":        "clasicas-test",
					"description": "Subcategoría de prueba",
				}
			},
			Update:        rest.Row{"description": "Subcategoría actualizada de prueba"},
			Parent:        parent,
			ParentMissing: "Failed to create parent category for subcategory test",
		},
		{
			Label:      "Products",
			Singular:   "product",
			Table:      "products",
			NameColumn: "name",
			Payload: func(tenantID, _ string) rest.Row {
				return rest.Row{
					TenantColumn:  tenantID,
					"name":        "Honda CBR 500 Test",
					"slug":        "honda-cbr-500-test",
					"brand":       "Honda",
					"model":       "CBR 500",
					"year":        2024,
					"price":       15000.00,
					"description": "Moto deportiva de prueba",
					"status":      "available",
				}
			},
			Update: rest.Row{"price": 14500.00},
		},
		{
			Label:      "Employees",
			Singular:   "employee",
			Table:      "employees",
			NameColumn: "full_name",
			Payload: func(tenantID, _ string) rest.Row {
				return rest.Row{
					TenantColumn: tenantID,
					"full_name":  "Juan Pérez Test",
					"position":   "Vendedor",
					"phone":      "+58 414 123 4567",
					"whatsapp":   "+58 414 123 4567",
					"email":      "juan.test@motostachira.com",
					"is_active":  true,
				}
			},
			Update: rest.Row{"position": "Gerente de ventas"},
		},
	}
}

// CRUDCheck runs every scenario, then the site settings branch, for the first fixture tenant
type CRUDCheck struct {
	Scenarios []CRUDScenario
}

func (CRUDCheck) Name() string { return "CRUD Operations" }

func (c CRUDCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING CRUD OPERATIONS")

	if len(env.Users) == 0 {
		log.Fail("CRUD Operations", "No fixture users configured", nil)
		return
	}
	tenantID := env.Users[0].DealershipID

	for _, s := range c.Scenarios {
		s.Run(ctx, env, log, tenantID)
	}
	runSiteSettings(ctx, env, log, tenantID)
}

// Run performs the round trip. Rows it creates are removed on every exit path, children first.
func (s CRUDScenario) Run(ctx context.Context, env *Env, log *report.Log, tenantID string) {
	scope := fixture.NewScope(s.Table, env.Logger)
	defer scope.Close(context.WithoutCancel(ctx))

	if err := s.run(ctx, env, log, scope, tenantID); err != nil {
		log.Fail(s.crudName(), fmt.Sprintf("Error in %s CRUD: %v", strings.ToLower(s.Label), err), report.Details{"error": err.Error()})
	}
}

func (s CRUDScenario) run(ctx context.Context, env *Env, log *report.Log, scope *fixture.Scope, tenantID string) error {
	db := env.Service

	parentID := ""
	if s.Parent != nil {
		resp, row, err := insertRow(ctx, db, s.Parent.Table, s.Parent.Payload(tenantID, ""))
		if err != nil {
			return err
		}
		if row == nil {
			log.Fail(s.crudName(), s.ParentMissing, report.Details{"status_code": resp.StatusCode})
			return nil
		}
		parentID = row.String("id")
		acquireRow(scope, db, s.Parent.Table, parentID)
	}

	resp, created, err := insertRow(ctx, db, s.Table, s.Payload(tenantID, parentID))
	if err != nil {
		return err
	}
	if created == nil {
		log.Fail(s.Label+" CREATE", fmt.Sprintf("Failed to create %s, status %d", s.Singular, resp.StatusCode), report.Details{
			"status_code": resp.StatusCode,
			"response":    resp.Text(),
		})
		return nil
	}
	id := created.String("id")
	key := acquireRow(scope, db, s.Table, id)
	log.Pass(s.Label+" CREATE", "Successfully created test "+s.Singular, report.Details{
		s.idDetail(): id,
		"name":       created.String(s.NameColumn),
	})

	if err := s.read(ctx, db, log, tenantID, id); err != nil {
		return err
	}

	if s.Update != nil {
		resp, err := db.Update(ctx, s.Table, s.Update, rest.Eq("id", id))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNoContent {
			log.Pass(s.Label+" UPDATE", "Successfully updated test "+s.Singular, report.Details{s.idDetail(): id})
		} else {
			log.Fail(s.Label+" UPDATE", fmt.Sprintf("Failed to update %s, status %d", s.Singular, resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		}
	}

	return s.delete(ctx, db, log, scope, key, id)
}

func (s CRUDScenario) read(ctx context.Context, db *rest.Client, log *report.Log, tenantID, id string) error {
	name := s.Label + " READ"

	resp, err := db.Select(ctx, s.Table, "", rest.Eq(TenantColumn, tenantID))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		log.Fail(name, fmt.Sprintf("Failed to read %s, status %d", s.Table, resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		return nil
	}

	rows, err := rest.DecodeRows(resp)
	if err != nil {
		return err
	}
	if _, ok := rest.FindByID(rows, id); ok {
		log.Pass(name, fmt.Sprintf("Successfully retrieved %s, found test %s", s.Table, s.Singular), report.Details{"total_" + s.Table: len(rows)})
	} else {
		log.Fail(name, fmt.Sprintf("Test %s not found in results", s.Singular), report.Details{s.Table + "_count": len(rows)})
	}
	return nil
}

func (s CRUDScenario) delete(ctx context.Context, db *rest.Client, log *report.Log, scope *fixture.Scope, key, id string) error {
	name := s.Label + " DELETE"

	resp, err := db.Delete(ctx, s.Table, rest.Eq("id", id))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		log.Fail(name, fmt.Sprintf("Failed to delete %s, status %d", s.Singular, resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		return nil
	}
	scope.Forget(key)

	check, err := db.Select(ctx, s.Table, "id", rest.Eq("id", id))
	if err != nil {
		return err
	}
	if check.StatusCode != http.StatusOK {
		log.Fail(name, fmt.Sprintf("Delete returned 204 but verification read failed, status %d", check.StatusCode), report.Details{
			"status_code": check.StatusCode,
			"response":    check.Text(),
			s.idDetail():  id,
		})
		return nil
	}
	rows, err := rest.DecodeRows(check)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		log.Fail(name, fmt.Sprintf("Deleted %s is still returned", s.Singular), report.Details{s.idDetail(): id})
		return nil
	}
	log.Pass(name, "Successfully deleted test "+s.Singular, report.Details{s.idDetail(): id})
	return nil
}

// insertRow creates one row. The returned row is nil when the service did not answer 201 with a record.
func insertRow(ctx context.Context, db *rest.Client, table string, payload rest.Row) (*api.Response, rest.Row, error) {
	resp, err := db.Insert(ctx, table, payload)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return resp, nil, nil
	}
	rows, err := rest.DecodeRows(resp)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 || rows[0].String("id") == "" {
		return nil, nil, errors.Errorf("insert into %s returned no id", table)
	}
	return resp, rows[0], nil
}

func acquireRow(scope *fixture.Scope, db *rest.Client, table, id string) string {
	key := table + ":" + id
	scope.Acquire(key, func(ctx context.Context) error {
		resp, err := db.Delete(ctx, table, rest.Eq("id", id))
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return errors.Errorf("delete %s returned status %d", key, resp.StatusCode)
		}
		return nil
	})
	return key
}

// runSiteSettings updates the tenant's settings row when present, otherwise creates one.
// Settings are tenant configuration and are left in place.
func runSiteSettings(ctx context.Context, env *Env, log *report.Log, tenantID string) {
	if err := siteSettings(ctx, env.Service, log, tenantID); err != nil {
		log.Fail("Site Settings CRUD", fmt.Sprintf("Error in site settings CRUD: %v", err), report.Details{"error": err.Error()})
	}
}

func siteSettings(ctx context.Context, db *rest.Client, log *report.Log, tenantID string) error {
	resp, err := db.Select(ctx, "site_settings", "", rest.Eq(TenantColumn, tenantID))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		log.Fail("Site Settings READ", fmt.Sprintf("Failed to read site settings, status %d", resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		return nil
	}
	settings, err := rest.DecodeRows(resp)
	if err != nil {
		return err
	}

	if len(settings) > 0 {
		id := settings[0].String("id")
		if id == "" {
			log.Fail("Site Settings UPDATE", "Existing site settings row has no id", report.Details{"settings": map[string]interface{}(settings[0])})
			return nil
		}
		resp, err := db.Update(ctx, "site_settings", rest.Row{
			"hero_title":    "Título de prueba actualizado",
			"hero_subtitle": "Subtítulo de prueba",
			"main_whatsapp": "+58 414 999 8888",
		}, rest.Eq("id", id))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNoContent {
			log.Pass("Site Settings UPDATE", "Successfully updated site settings", report.Details{"settings_id": id})
		} else {
			log.Fail("Site Settings UPDATE", fmt.Sprintf("Failed to update settings, status %d", resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		}
	} else {
		resp, err := db.Insert(ctx, "site_settings", rest.Row{
			TenantColumn:    tenantID,
			"hero_title":    "Título de prueba",
			"hero_subtitle": "Subtítulo de prueba",
			"footer_text":   "Footer de prueba",
			"main_whatsapp": "+58 414 999 8888",
		})
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusCreated {
			log.Pass("Site Settings CREATE", "Successfully created site settings", report.Details{"dealership_id": tenantID})
		} else {
			log.Fail("Site Settings CREATE", fmt.Sprintf("Failed to create settings, status %d", resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		}
	}

	log.Pass("Site Settings READ", "Successfully retrieved site settings", report.Details{"settings_count": len(settings)})
	return nil
}
