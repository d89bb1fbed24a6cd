package request

type SetApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin client worker"`
}
