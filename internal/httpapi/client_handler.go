package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"clientDirectory/internal/events"
	"clientDirectory/models"
	"clientDirectory/repository"
)

// ListClients returns clients. company_name searches by company name fragment;
// user_id restricts to clients owned by that user.
//
//	@Summary	List clients
//	@Tags		clients
//	@Produce	json
//	@Security	BearerAuth
//	@Param		company_name	query		string	false	"Company name fragment, case-insensitive"
//	@Param		user_id			query		int		false	"Owner id"
//	@Param		limit			query		int		false	"Page size (max 100)"
//	@Param		offset			query		int		false	"Rows to skip"
//	@Success	200				{object}	ListResponse{data=[]models.Client}
//	@Failure	400				{object}	ErrorResponse
//	@Router		/clients [get]
func (h *Handler) ListClients(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	if name, present := c.GetQuery("company_name"); present {
		clients, err := h.clients.FindClientsByCompanyName(c.Request.Context(), strings.TrimSpace(name))
		if h.handleRepoError(c, err, "") {
			return
		}
		list(c, repository.Paginate(clients, p))
		return
	}
	f := repository.ClientFilter{Page: p}
	userID, present, ok := queryInt(c, "user_id", 1, 1<<62)
	if !ok {
		return
	}
	if present {
		f.UserID = &userID
	}
	clients, err := h.clients.List(c.Request.Context(), f)
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, clients)
}

// CreateClient registers a client for a company. Only administrators may create
// clients, and a company can be held by one client only.
//
//	@Summary	Create client
//	@Tags		clients
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		ClientRequest	true	"Client"
//	@Success	201		{object}	DataResponse{data=models.Client}
//	@Failure	400		{object}	ErrorResponse	"invalid body, unknown user or company, or company already taken"
//	@Failure	401		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Router		/clients [post]
func (h *Handler) CreateClient(c *gin.Context) {
	cl, ok := h.clientFromRequest(c)
	if !ok {
		return
	}
	cl, err := h.clients.Create(c.Request.Context(), cl)
	if h.handleRepoError(c, err, "") {
		return
	}
	h.emit(c, events.ClientCreated, cl)
	created(c, cl)
}

// GetClient returns one client with its owner and company.
//
//	@Summary	Get client
//	@Tags		clients
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Client id"
//	@Success	200	{object}	DataResponse{data=models.Client}
//	@Failure	404	{object}	ErrorResponse
//	@Router		/clients/{id} [get]
func (h *Handler) GetClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cl, err := h.clients.GetByID(c.Request.Context(), id)
	if h.handleRepoError(c, err, "") {
		return
	}
	if cl == nil {
		notFound(c, "client not found")
		return
	}
	success(c, cl)
}

// UpdateClient replaces a client's attributes.
//
//	@Summary	Update client
//	@Tags		clients
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int				true	"Client id"
//	@Param		request	body		ClientRequest	true	"Client"
//	@Success	200		{object}	DataResponse{data=models.Client}
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/clients/{id} [put]
func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cl, ok := h.clientFromRequest(c)
	if !ok {
		return
	}
	cl.ID = id
	ctx := c.Request.Context()
	if h.handleRepoError(c, h.clients.Update(ctx, cl), "client not found") {
		return
	}
	stored, err := h.clients.GetByID(ctx, id)
	if h.handleRepoError(c, err, "") {
		return
	}
	h.emit(c, events.ClientUpdated, stored)
	success(c, stored)
}

// DeleteClient removes a client and its user links.
//
//	@Summary	Delete client
//	@Tags		clients
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Client id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/clients/{id} [delete]
func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if h.handleRepoError(c, h.clients.Delete(c.Request.Context(), id), "client not found") {
		return
	}
	h.emit(c, events.ClientDeleted, gin.H{"id": id})
	noContent(c)
}

// ListClientUsers returns the users linked to a client. With include_unlinked=true
// the full link history is returned instead.
//
//	@Summary	Users of a client
//	@Tags		clients
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id					path		int		true	"Client id"
//	@Param		include_unlinked	query		bool	false	"Return link history rows"
//	@Success	200					{object}	ListResponse{data=[]models.User}
//	@Failure	404					{object}	ErrorResponse
//	@Router		/clients/{id}/users [get]
func (h *Handler) ListClientUsers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cl, err := h.clients.GetByID(ctx, id)
	if h.handleRepoError(c, err, "") {
		return
	}
	if cl == nil {
		notFound(c, "client not found")
		return
	}
	if c.Query("include_unlinked") == "true" {
		history, err := h.links.History(ctx, id)
		if h.handleRepoError(c, err, "") {
			return
		}
		list(c, history)
		return
	}
	users, err := h.links.ListUsers(ctx, id)
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, users)
}

// LinkClientUser attaches a user to a client.
//
//	@Summary	Link user to client
//	@Tags		clients
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int				true	"Client id"
//	@Param		request	body		LinkUserRequest	true	"User to link"
//	@Success	201		{object}	DataResponse{data=models.ClientUser}
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse	"already linked"
//	@Router		/clients/{id}/users [post]
func (h *Handler) LinkClientUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req LinkUserRequest
	if !h.bind(c, &req) {
		return
	}
	link, err := h.links.Link(c.Request.Context(), id, req.UserID)
	if h.handleRepoError(c, err, "client not found") {
		return
	}
	h.emit(c, events.ClientUserLinked, link)
	created(c, link)
}

// UnlinkClientUser soft-deletes the link between a client and a user.
//
//	@Summary	Unlink user from client
//	@Tags		clients
//	@Security	BearerAuth
//	@Param		id		path	int	true	"Client id"
//	@Param		userID	path	int	true	"User id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/clients/{id}/users/{userID} [delete]
func (h *Handler) UnlinkClientUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	if h.handleRepoError(c, h.links.Unlink(c.Request.Context(), id, userID), "link not found") {
		return
	}
	h.emit(c, events.ClientUserUnlinked, gin.H{"client_id": id, "user_id": userID})
	noContent(c)
}

func (h *Handler) clientFromRequest(c *gin.Context) (*models.Client, bool) {
	var req ClientRequest
	if !h.bind(c, &req) {
		return nil, false
	}
	cl := &models.Client{
		Name:      h.validate.Sanitize(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		UserID:    req.UserID,
		CompanyID: req.CompanyID,
	}
	if cl.Name == "" {
		badRequest(c, "name is required")
		return nil, false
	}
	return cl, true
}
