package httpapi

import (
	"math"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"clientDirectory/internal/events"
	"clientDirectory/models"
	"clientDirectory/repository"
)

// ListCompanies returns companies. When min_employees or max_employees is given the
// inclusive headcount range query is used; limit and offset apply to its filtered result.
//
//	@Summary	List companies
//	@Tags		companies
//	@Produce	json
//	@Security	BearerAuth
//	@Param		min_employees	query		int		false	"Lower headcount bound (inclusive)"
//	@Param		max_employees	query		int		false	"Upper headcount bound (inclusive)"
//	@Param		industry		query		string	false	"Exact industry"
//	@Param		limit			query		int		false	"Page size (max 100)"
//	@Param		offset			query		int		false	"Rows to skip"
//	@Success	200				{object}	ListResponse{data=[]models.Company}
//	@Failure	400				{object}	ErrorResponse
//	@Router		/companies [get]
func (h *Handler) ListCompanies(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	industry := strings.ToLower(strings.TrimSpace(c.Query("industry")))
	minEmp, hasMin, ok := queryInt(c, "min_employees", 0, math.MaxInt32)
	if !ok {
		return
	}
	maxEmp, hasMax, ok := queryInt(c, "max_employees", 0, math.MaxInt32)
	if !ok {
		return
	}
	if hasMin || hasMax {
		if !hasMax {
			maxEmp = math.MaxInt32
		}
		if minEmp > maxEmp {
			badRequest(c, "min_employees must not exceed max_employees")
			return
		}
		companies, err := h.companies.FindCompaniesByEmployeeRange(c.Request.Context(), int(minEmp), int(maxEmp))
		if h.handleRepoError(c, err, "") {
			return
		}
		if industry != "" {
			kept := companies[:0]
			for _, co := range companies {
				if co.Industry == industry {
					kept = append(kept, co)
				}
			}
			companies = kept
		}
		list(c, repository.Paginate(companies, p))
		return
	}

	companies, err := h.companies.List(c.Request.Context(), repository.CompanyFilter{Industry: industry, Page: p})
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, companies)
}

// CreateCompany registers a company.
//
//	@Summary	Create company
//	@Tags		companies
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		CompanyRequest	true	"Company"
//	@Success	201		{object}	DataResponse{data=models.Company}
//	@Failure	400		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse	"name taken"
//	@Router		/companies [post]
func (h *Handler) CreateCompany(c *gin.Context) {
	co, ok := h.companyFromRequest(c)
	if !ok {
		return
	}
	co, err := h.companies.Create(c.Request.Context(), co)
	if h.handleRepoError(c, err, "") {
		return
	}
	h.emit(c, events.CompanyCreated, co)
	created(c, co)
}

// GetCompany returns one company.
//
//	@Summary	Get company
//	@Tags		companies
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Company id"
//	@Success	200	{object}	DataResponse{data=models.Company}
//	@Failure	404	{object}	ErrorResponse
//	@Router		/companies/{id} [get]
func (h *Handler) GetCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	co, err := h.companies.GetByID(c.Request.Context(), id)
	if h.handleRepoError(c, err, "") {
		return
	}
	if co == nil {
		notFound(c, "company not found")
		return
	}
	success(c, co)
}

// UpdateCompany replaces a company's attributes.
//
//	@Summary	Update company
//	@Tags		companies
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int				true	"Company id"
//	@Param		request	body		CompanyRequest	true	"Company"
//	@Success	200		{object}	DataResponse{data=models.Company}
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/companies/{id} [put]
func (h *Handler) UpdateCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	co, ok := h.companyFromRequest(c)
	if !ok {
		return
	}
	co.ID = id
	if h.handleRepoError(c, h.companies.Update(c.Request.Context(), co), "company not found") {
		return
	}
	stored, err := h.companies.GetByID(c.Request.Context(), id)
	if h.handleRepoError(c, err, "") {
		return
	}
	h.emit(c, events.CompanyUpdated, stored)
	success(c, stored)
}

// DeleteCompany removes a company no client holds. Its employees are detached.
//
//	@Summary	Delete company
//	@Tags		companies
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Company id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse	"company held by a client"
//	@Router		/companies/{id} [delete]
func (h *Handler) DeleteCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if h.handleRepoError(c, h.companies.Delete(c.Request.Context(), id), "company not found") {
		return
	}
	h.emit(c, events.CompanyDeleted, gin.H{"id": id})
	noContent(c)
}

// ListCompanyEmployees returns the users employed by a company.
//
//	@Summary	Employees of a company
//	@Tags		companies
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int	true	"Company id"
//	@Param		limit	query		int	false	"Page size (max 100)"
//	@Param		offset	query		int	false	"Rows to skip"
//	@Success	200		{object}	ListResponse{data=[]models.User}
//	@Failure	404		{object}	ErrorResponse
//	@Router		/companies/{id}/employees [get]
func (h *Handler) ListCompanyEmployees(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	co, err := h.companies.GetByID(ctx, id)
	if h.handleRepoError(c, err, "") {
		return
	}
	if co == nil {
		notFound(c, "company not found")
		return
	}
	users, err := h.users.ListByCompany(ctx, id, p)
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, users)
}

func (h *Handler) companyFromRequest(c *gin.Context) (*models.Company, bool) {
	var req CompanyRequest
	if !h.bind(c, &req) {
		return nil, false
	}
	co := &models.Company{
		Name:      h.validate.Sanitize(req.Name),
		Employees: req.Employees,
		Industry:  strings.ToLower(h.validate.Sanitize(req.Industry)),
		Revenue:   decimal.Zero,
	}
	if co.Name == "" {
		badRequest(c, "name is required")
		return nil, false
	}
	if req.Revenue != nil {
		if req.Revenue.IsNegative() {
			badRequest(c, "revenue must not be negative")
			return nil, false
		}
		co.Revenue = req.Revenue.Round(2)
	}
	return co, true
}
