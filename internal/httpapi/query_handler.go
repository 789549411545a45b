package httpapi

import (
	"math"
	"strings"

	"github.com/gin-gonic/gin"
)

// TopRevenueCompanies returns, for each industry, the companies with the highest revenue.
//
//	@Summary	Top revenue per industry
//	@Tags		queries
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	ListResponse{data=[]models.Company}
//	@Router		/queries/companies/top-revenue [get]
func (h *Handler) TopRevenueCompanies(c *gin.Context) {
	companies, err := h.companies.MaxRevenueCompaniesByIndustry(c.Request.Context())
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, companies)
}

// CompaniesByEmployees returns companies whose headcount lies in [min, max].
//
//	@Summary	Companies by headcount
//	@Tags		queries
//	@Produce	json
//	@Security	BearerAuth
//	@Param		min	query		int	true	"Lower bound (inclusive)"
//	@Param		max	query		int	true	"Upper bound (inclusive)"
//	@Success	200	{object}	ListResponse{data=[]models.Company}
//	@Failure	400	{object}	ErrorResponse
//	@Router		/queries/companies/by-employees [get]
func (h *Handler) CompaniesByEmployees(c *gin.Context) {
	minEmp, hasMin, ok := queryInt(c, "min", 0, math.MaxInt32)
	if !ok {
		return
	}
	maxEmp, hasMax, ok := queryInt(c, "max", 0, math.MaxInt32)
	if !ok {
		return
	}
	if !hasMin || !hasMax {
		badRequest(c, "min and max are required")
		return
	}
	if minEmp > maxEmp {
		badRequest(c, "min must not exceed max")
		return
	}
	companies, err := h.companies.FindCompaniesByEmployeeRange(c.Request.Context(), int(minEmp), int(maxEmp))
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, companies)
}

// ClientsByUser returns the clients a user is linked to.
//
//	@Summary	Clients by linked user
//	@Tags		queries
//	@Produce	json
//	@Security	BearerAuth
//	@Param		userID	path		int	true	"User id"
//	@Success	200		{object}	ListResponse{data=[]models.Client}
//	@Failure	404		{object}	ErrorResponse
//	@Router		/queries/clients/by-user/{userID} [get]
func (h *Handler) ClientsByUser(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	h.clientsOfUser(c, userID)
}

// ClientsByCompanyName returns clients whose company name contains name.
//
//	@Summary	Clients by company name
//	@Tags		queries
//	@Produce	json
//	@Security	BearerAuth
//	@Param		name	query		string	true	"Company name fragment, case-insensitive"
//	@Success	200		{object}	ListResponse{data=[]models.Client}
//	@Failure	400		{object}	ErrorResponse
//	@Router		/queries/clients/by-company-name [get]
func (h *Handler) ClientsByCompanyName(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		badRequest(c, "name is required")
		return
	}
	clients, err := h.clients.FindClientsByCompanyName(c.Request.Context(), name)
	if h.handleRepoError(c, err, "") {
		return
	}
	list(c, clients)
}
