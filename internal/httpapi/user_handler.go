package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"clientDirectory/internal/auth"
	"clientDirectory/internal/events"
	"clientDirectory/models"
	"clientDirectory/repository"
)

// ListUsers returns users, optionally filtered by exact username or company.
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		username	query		string	false	"Exact username"
//	@Param		company_id	query		int		false	"Employer id"
//	@Param		limit		query		int		false	"Page size (max 100)"
//	@Param		offset		query		int		false	"Rows to skip"
//	@Success	200			{object}	ListResponse{data=[]models.User}
//	@Failure	400			{object}	ErrorResponse
//	@Failure	401			{object}	ErrorResponse
//	@Router		/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	f := repository.UserFilter{Username: strings.TrimSpace(c.Query("username")), Page: p}
	companyID, present, ok := queryInt(c, "company_id", 1, 1<<62)
	if !ok {
		return
	}
	if present {
		f.CompanyID = &companyID
	}
	users, err := h.users.List(c.Request.Context(), f)
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, users)
}

// CreateUser registers a user. Only administrators may create users.
//
//	@Summary	Create user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		CreateUserRequest	true	"User"
//	@Success	201		{object}	DataResponse{data=models.User}
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse	"username or email taken"
//	@Router		/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !h.bind(c, &req) {
		return
	}
	u := &models.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      req.Role,
		CompanyID: req.CompanyID,
	}
	if u.Username == "" {
		badRequest(c, "username is required")
		return
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.internalError(c, err)
			return
		}
		u.PasswordHash = hash
	}
	u, err := h.users.Create(c.Request.Context(), u)
	if h.handleRepoError(c, err, "") {
		return
	}
	h.emit(c, events.UserCreated, u)
	created(c, u)
}

// GetUser returns one user.
//
//	@Summary	Get user
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"User id"
//	@Success	200	{object}	DataResponse{data=models.User}
//	@Failure	404	{object}	ErrorResponse
//	@Router		/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), id)
	if h.handleRepoError(c, err, "") {
		return
	}
	if u == nil {
		notFound(c, "user not found")
		return
	}
	success(c, u)
}

// UpdateUser changes a user. Administrators may change anything; other users may
// change their own username, email and password only.
//
//	@Summary	Update user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int					true	"User id"
//	@Param		request	body		UpdateUserRequest	true	"Fields to change"
//	@Success	200		{object}	DataResponse{data=models.User}
//	@Failure	400		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p := h.principal(c)

	isAdmin := false
	if p.IsAdmin() {
		admin, err := auth.StoredAdmin(ctx, h.users, p)
		if err != nil {
			h.internalError(c, err)
			return
		}
		isAdmin = admin
	}
	if !isAdmin && p.UserID != id {
		forbidden(c, "only ROLE_ADMIN can update other users")
		return
	}

	var req UpdateUserRequest
	if !h.bind(c, &req) {
		return
	}
	if !isAdmin && (req.Role != nil || req.CompanyID != nil) {
		forbidden(c, "only ROLE_ADMIN can change role or company")
		return
	}

	u, err := h.users.GetByID(ctx, id)
	if h.handleRepoError(c, err, "") {
		return
	}
	if u == nil {
		notFound(c, "user not found")
		return
	}
	if req.Username != nil {
		u.Username = *req.Username
		if u.Username == "" {
			badRequest(c, "username is required")
			return
		}
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.internalError(c, err)
			return
		}
		u.PasswordHash = hash
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.CompanyID != nil {
		if *req.CompanyID == 0 {
			u.CompanyID = nil
		} else {
			u.CompanyID = req.CompanyID
		}
	}
	if h.handleRepoError(c, h.users.Update(ctx, u), "user not found") {
		return
	}
	h.emit(c, events.UserUpdated, u)
	success(c, u)
}

// DeleteUser removes a user who owns no clients.
//
//	@Summary	Delete user
//	@Tags		users
//	@Security	BearerAuth
//	@Param		id	path	int	true	"User id"
//	@Success	204
//	@Failure	403	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse	"user still owns clients"
//	@Router		/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if h.principal(c).UserID == id {
		badRequest(c, "administrators cannot delete their own account")
		return
	}
	if h.handleRepoError(c, h.users.Delete(c.Request.Context(), id), "user not found") {
		return
	}
	h.emit(c, events.UserDeleted, gin.H{"id": id})
	noContent(c)
}

// ListUserClients returns the clients a user is linked to.
//
//	@Summary	Clients of a user
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"User id"
//	@Success	200	{object}	ListResponse{data=[]models.Client}
//	@Failure	404	{object}	ErrorResponse
//	@Router		/users/{id}/clients [get]
func (h *Handler) ListUserClients(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.clientsOfUser(c, id)
}

func (h *Handler) clientsOfUser(c *gin.Context, userID int64) {
	ctx := c.Request.Context()
	u, err := h.users.GetByID(ctx, userID)
	if h.handleRepoError(c, err, "") {
		return
	}
	if u == nil {
		notFound(c, "user not found")
		return
	}
	clients, err := h.links.ListClients(ctx, userID)
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, clients)
}
