// Package policy 集中定义角色与资源归属到可执行操作的映射。
//
// 所有判断均为纯函数；归属字段必须取自数据库中的当前值，而不是请求体。
package policy

import (
	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/model"
)

// Tier 角色层级
type Tier int

const (
	TierNone        Tier = iota
	TierAdmin            // ADMIN, PROJECT_MANAGER
	TierQC               // QC
	TierContributor      // DEVELOPER, DESIGNER
)

// TierOf 角色所属层级
func TierOf(role model.Role) Tier {
	switch role {
	case model.RoleAdmin, model.RoleProjectManager:
		return TierAdmin
	case model.RoleQC:
		return TierQC
	case model.RoleDeveloper, model.RoleDesigner:
		return TierContributor
	default:
		return TierNone
	}
}

// IsAdminTier 是否为管理层级
func IsAdminTier(role model.Role) bool {
	return TierOf(role) == TierAdmin
}

// Actor 当前操作者
type Actor struct {
	Id   int64
	Role model.Role
}

// Capability 可执行的操作
type Capability string

const (
	StartTimer         Capability = "timer:start"
	LogTime            Capability = "time_entry:log"
	ViewTimeEntry      Capability = "time_entry:view"
	ModifyTimeEntry    Capability = "time_entry:modify"
	DeleteTimeEntry    Capability = "time_entry:delete"
	ListAllTimeEntries Capability = "time_entry:list_all"
	ReviewTask         Capability = "task:review"
	CreateTask         Capability = "task:create"
	UpdateTask         Capability = "task:update"
	AssignTask         Capability = "task:assign"
	DeleteTask         Capability = "task:delete"
)

type scope int

const (
	scopeNone  scope = iota
	scopeOwned       // 仅限本人归属的资源
	scopeAny
)

var rules = map[Capability]map[Tier]scope{
	StartTimer:         {TierAdmin: scopeAny, TierQC: scopeAny, TierContributor: scopeOwned},
	LogTime:            {TierAdmin: scopeAny, TierQC: scopeAny, TierContributor: scopeOwned},
	ViewTimeEntry:      {TierAdmin: scopeAny, TierQC: scopeOwned, TierContributor: scopeOwned},
	ModifyTimeEntry:    {TierAdmin: scopeAny, TierQC: scopeOwned, TierContributor: scopeOwned},
	DeleteTimeEntry:    {TierAdmin: scopeAny, TierQC: scopeOwned, TierContributor: scopeOwned},
	ListAllTimeEntries: {TierAdmin: scopeAny},
	ReviewTask:         {TierAdmin: scopeAny, TierQC: scopeAny},
	CreateTask:         {TierAdmin: scopeAny, TierQC: scopeAny},
	UpdateTask:         {TierAdmin: scopeAny, TierQC: scopeOwned, TierContributor: scopeOwned},
	AssignTask:         {TierAdmin: scopeAny},
	DeleteTask:         {TierAdmin: scopeAny},
}

// Owner 资源的归属用户，nil 表示无归属（例如未分配的任务）
type Owner struct {
	id *int64
}

// OwnedBy 归属于指定用户
func OwnedBy(id int64) Owner {
	return Owner{id: &id}
}

// OwnedByPtr 归属字段可能为空
func OwnedByPtr(id *int64) Owner {
	if id == nil {
		return Owner{}
	}
	return OwnedBy(*id)
}

// NoOwner 不涉及归属的操作
var NoOwner = Owner{}

// IsOwner 判断操作者是否为资源归属人
func IsOwner(owner Owner, actorId int64) bool {
	return owner.id != nil && *owner.id == actorId
}

// Allows 判断操作者是否拥有对资源的操作权限
func Allows(actor Actor, capability Capability, owner Owner) bool {
	tiers, ok := rules[capability]
	if !ok {
		return false
	}
	switch tiers[TierOf(actor.Role)] {
	case scopeAny:
		return true
	case scopeOwned:
		return IsOwner(owner, actor.Id)
	default:
		return false
	}
}

// Authorize 无权限时返回 AuthorizationError
func Authorize(actor Actor, capability Capability, owner Owner) error {
	if Allows(actor, capability, owner) {
		return nil
	}
	return apperror.Authorization("permission denied: " + string(capability))
}
