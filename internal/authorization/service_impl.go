package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectMedicine    = "medicine"
	ObjectSupplier    = "supplier"
	ObjectCustomer    = "customer"
	ObjectInvoice     = "invoice"
	ObjectReport      = "report"
	ObjectDashboard   = "dashboard"
	ObjectActivityLog = "activity_log"
	ObjectUser        = "user"
)

const (
	ActionMedicineView    = "medicine.view"
	ActionMedicineCreate  = "medicine.create"
	ActionMedicineArchive = "medicine.archive"
	ActionMedicineDelete  = "medicine.delete"

	ActionSupplierView   = "supplier.view"
	ActionSupplierCreate = "supplier.create"
	ActionSupplierUpdate = "supplier.update"

	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"
	ActionCustomerUpdate = "customer.update"

	ActionInvoiceView   = "invoice.view"
	ActionInvoiceCreate = "invoice.create"

	ActionReportView      = "report.view"
	ActionDashboardView   = "dashboard.view"
	ActionActivityLogView = "activity_log.view"

	ActionUserCreate = "user.create"
)

const (
	roleStaff = "role:staff"
	roleAdmin = "role:admin"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer loads policies persisted through the gorm adapter and seeds the defaults.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	return newEnforcer(adapter)
}

// NewMemoryEnforcer builds an enforcer with the default policies and no persistence.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	return newEnforcer(nil)
}

func newEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if adapter != nil {
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(adapter != nil)
	enforcer.EnableAutoBuildRoleLinks(true)
	if adapter != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID string, role string, object string, action string) error {
	userID = strings.TrimSpace(userID)
	role = strings.ToLower(strings.TrimSpace(role))
	if userID == "" || role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("user:%s", userID)
	if err := s.ensureGrouping(subject, fmt.Sprintf("role:%s", role)); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, userID, role, object, action)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role link for subject, following role changes.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(rule[0], rule[1]); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, userID, role, object, action string) {
	s.log.Info("authorization denied",
		zap.String("user_id", userID),
		zap.String("role", role),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, auditdomain.TypeAuthorization,
		fmt.Sprintf("Permission denied: %s for %s", action, role),
		map[string]any{
			"object": object,
			"action": action,
			"role":   role,
		})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleStaff, ObjectMedicine, ActionMedicineView},
		{roleStaff, ObjectMedicine, ActionMedicineCreate},
		{roleStaff, ObjectMedicine, ActionMedicineArchive},
		{roleStaff, ObjectSupplier, ActionSupplierView},
		{roleStaff, ObjectSupplier, ActionSupplierCreate},
		{roleStaff, ObjectSupplier, ActionSupplierUpdate},
		{roleStaff, ObjectCustomer, ActionCustomerView},
		{roleStaff, ObjectCustomer, ActionCustomerCreate},
		{roleStaff, ObjectCustomer, ActionCustomerUpdate},
		{roleStaff, ObjectInvoice, ActionInvoiceView},
		{roleStaff, ObjectInvoice, ActionInvoiceCreate},
		{roleStaff, ObjectReport, ActionReportView},
		{roleStaff, ObjectDashboard, ActionDashboardView},
		{roleStaff, ObjectActivityLog, ActionActivityLogView},

		{roleAdmin, ObjectMedicine, ActionMedicineDelete},
		{roleAdmin, ObjectUser, ActionUserCreate},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	if _, err := enforcer.AddGroupingPolicy(roleAdmin, roleStaff); err != nil {
		return err
	}
	return nil
}
