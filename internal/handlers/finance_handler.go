package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-project-finance/internal/database"
	"go-project-finance/internal/lifecycle"
	"go-project-finance/internal/models"
)

// Every create, update and delete in this file passes the lifecycle guard first.

type EntryInput struct {
	Category    string          `json:"category"` // expenses only
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

type BillingInput struct {
	InvoiceNumber string               `json:"invoice_number" binding:"required"`
	BillingDate   time.Time            `json:"billing_date"`
	DueDate       time.Time            `json:"due_date"`
	Amount        decimal.Decimal      `json:"amount"`
	Tax           decimal.Decimal      `json:"tax"`
	TotalAmount   *decimal.Decimal     `json:"total_amount"` // defaults to amount - tax
	Status        models.BillingStatus `json:"status"`
}

type CollectionInput struct {
	CollectionNumber string                  `json:"collection_number" binding:"required"`
	Amount           decimal.Decimal         `json:"amount"`
	Status           models.CollectionStatus `json:"status"`
	CollectionDate   time.Time               `json:"collection_date"`
}

func bindEntry(c *gin.Context) (EntryInput, bool) {
	var input EntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return input, false
	}
	if !input.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be greater than zero"})
		return input, false
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	return input, true
}

// liveProject fails with ErrProjectNotFound for missing and trashed projects.
func liveProject(ctx context.Context, id uint) error {
	var count int64
	err := database.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND deleted_at IS NULL", id).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return lifecycle.ErrProjectNotFound
	}
	return nil
}

// --- Revenues ---

func ListRevenues(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := liveProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}
	var out []models.Revenue
	if err := database.DB.WithContext(c.Request.Context()).Where("project_id = ?", projectID).Order("date desc").Find(&out).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateRevenue(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	input, ok := bindEntry(c)
	if !ok {
		return
	}
	rev := models.Revenue{ProjectID: projectID, Description: input.Description, Amount: input.Amount, Date: input.Date}
	err := guard.WriteTx(c.Request.Context(), projectID, func(tx *gorm.DB) error {
		return tx.Create(&rev).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rev)
}

func UpdateRevenue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	input, ok := bindEntry(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var rev models.Revenue
	if err := database.DB.WithContext(ctx).First(&rev, id).Error; err != nil {
		respondError(c, err)
		return
	}
	rev.Description, rev.Amount, rev.Date = input.Description, input.Amount, input.Date
	err := guard.WriteTx(ctx, rev.ProjectID, func(tx *gorm.DB) error {
		return tx.Save(&rev).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func DeleteRevenue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var rev models.Revenue
	if err := database.DB.WithContext(ctx).First(&rev, id).Error; err != nil {
		respondError(c, err)
		return
	}
	err := guard.WriteTx(ctx, rev.ProjectID, func(tx *gorm.DB) error {
		return tx.Delete(&rev).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Revenue deleted"})
}

// --- Expenses ---

func ListExpenses(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := liveProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}
	var out []models.Expense
	if err := database.DB.WithContext(c.Request.Context()).Where("project_id = ?", projectID).Order("date desc").Find(&out).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateExpense(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	input, ok := bindEntry(c)
	if !ok {
		return
	}
	exp := models.Expense{
		ProjectID:   projectID,
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        input.Date,
	}
	err := guard.WriteTx(c.Request.Context(), projectID, func(tx *gorm.DB) error {
		return tx.Create(&exp).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

func UpdateExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	input, ok := bindEntry(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var exp models.Expense
	if err := database.DB.WithContext(ctx).First(&exp, id).Error; err != nil {
		respondError(c, err)
		return
	}
	exp.Category, exp.Description, exp.Amount, exp.Date = input.Category, input.Description, input.Amount, input.Date
	err := guard.WriteTx(ctx, exp.ProjectID, func(tx *gorm.DB) error {
		return tx.Save(&exp).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func DeleteExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var exp models.Expense
	if err := database.DB.WithContext(ctx).First(&exp, id).Error; err != nil {
		respondError(c, err)
		return
	}
	err := guard.WriteTx(ctx, exp.ProjectID, func(tx *gorm.DB) error {
		return tx.Delete(&exp).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}

// --- Billings ---

func validBilling(c *gin.Context, input *BillingInput) bool {
	if input.Status == "" {
		input.Status = models.BillingDraft
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown billing status"})
		return false
	}
	if !input.Amount.IsPositive() || input.Tax.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive and tax must not be negative"})
		return false
	}
	if input.BillingDate.IsZero() {
		input.BillingDate = time.Now()
	}
	return true
}

func ListBillings(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := liveProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}
	var out []models.Billing
	err := database.DB.WithContext(c.Request.Context()).
		Preload("Collections").
		Where("project_id = ?", projectID).
		Order("billing_date desc").
		Find(&out).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateBilling(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input BillingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !validBilling(c, &input) {
		return
	}
	billing := models.Billing{
		InvoiceNumber: input.InvoiceNumber,
		ProjectID:     projectID,
		BillingDate:   input.BillingDate,
		DueDate:       input.DueDate,
		Amount:        input.Amount,
		Tax:           input.Tax,
		TotalAmount:   models.BillingTotal(input.Amount, input.Tax, input.TotalAmount),
		Status:        input.Status,
	}
	err := guard.WriteTx(c.Request.Context(), projectID, func(tx *gorm.DB) error {
		return tx.Create(&billing).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, billing)
}

func UpdateBilling(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input BillingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !validBilling(c, &input) {
		return
	}
	ctx := c.Request.Context()

	billing, err := guard.GuardBillingWrite(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	billing.InvoiceNumber = input.InvoiceNumber
	billing.BillingDate = input.BillingDate
	billing.DueDate = input.DueDate
	billing.Amount = input.Amount
	billing.Tax = input.Tax
	billing.TotalAmount = models.BillingTotal(input.Amount, input.Tax, input.TotalAmount)
	billing.Status = input.Status
	err = guard.WriteTx(ctx, billing.ProjectID, func(tx *gorm.DB) error {
		return tx.Save(billing).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, billing)
}

// DeleteBilling removes the billing and its collections.
func DeleteBilling(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	billing, err := guard.GuardBillingWrite(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	err = guard.WriteTx(ctx, billing.ProjectID, func(tx *gorm.DB) error {
		if err := tx.Where("billing_id = ?", billing.ID).Delete(&models.Collection{}).Error; err != nil {
			return err
		}
		return tx.Delete(billing).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Billing deleted"})
}

// --- Collections ---

func validCollection(c *gin.Context, input *CollectionInput) bool {
	if input.Status == "" {
		input.Status = models.CollectionPaid
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown collection status"})
		return false
	}
	if !input.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be greater than zero"})
		return false
	}
	if input.CollectionDate.IsZero() {
		input.CollectionDate = time.Now()
	}
	return true
}

func ListCollections(c *gin.Context) {
	billingID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var billing models.Billing
	if err := database.DB.WithContext(ctx).First(&billing, billingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = lifecycle.ErrBillingNotFound
		}
		respondError(c, err)
		return
	}
	if err := liveProject(ctx, billing.ProjectID); err != nil {
		respondError(c, err)
		return
	}
	var out []models.Collection
	if err := database.DB.WithContext(ctx).Where("billing_id = ?", billingID).Order("collection_date desc").Find(&out).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateCollection resolves the billing, then its project, before writing.
func CreateCollection(c *gin.Context) {
	billingID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input CollectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !validCollection(c, &input) {
		return
	}
	ctx := c.Request.Context()

	billing, err := guard.GuardBillingWrite(ctx, billingID)
	if err != nil {
		respondError(c, err)
		return
	}

	col := models.Collection{
		CollectionNumber: input.CollectionNumber,
		BillingID:        billing.ID,
		ProjectID:        billing.ProjectID,
		Amount:           input.Amount,
		Status:           input.Status,
		CollectionDate:   input.CollectionDate,
	}
	err = guard.WriteTx(ctx, billing.ProjectID, func(tx *gorm.DB) error {
		if err := tx.Create(&col).Error; err != nil {
			return err
		}
		return settleBilling(tx, billing.ID, time.Now())
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

func UpdateCollection(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input CollectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !validCollection(c, &input) {
		return
	}
	ctx := c.Request.Context()

	col, err := guard.GuardCollectionWrite(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	col.CollectionNumber = input.CollectionNumber
	col.Amount = input.Amount
	col.Status = input.Status
	col.CollectionDate = input.CollectionDate
	err = guard.WriteTx(ctx, col.ProjectID, func(tx *gorm.DB) error {
		if err := tx.Save(col).Error; err != nil {
			return err
		}
		return settleBilling(tx, col.BillingID, time.Now())
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func DeleteCollection(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	col, err := guard.GuardCollectionWrite(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	err = guard.WriteTx(ctx, col.ProjectID, func(tx *gorm.DB) error {
		if err := tx.Delete(col).Error; err != nil {
			return err
		}
		return settleBilling(tx, col.BillingID, time.Now())
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collection deleted"})
}

// settleBilling keeps an issued billing in step with its collections: paid once
// they cover the total, back to sent (or overdue past the due date) when a change
// leaves it short again.
func settleBilling(tx *gorm.DB, billingID uint, now time.Time) error {
	var billing models.Billing
	if err := tx.Preload("Collections").First(&billing, billingID).Error; err != nil {
		return err
	}

	var next models.BillingStatus
	switch {
	case billing.Status != models.BillingSent && billing.Status != models.BillingOverdue && billing.Status != models.BillingPaid:
		return nil
	case billing.FullyCollected():
		next = models.BillingPaid
	case billing.Status != models.BillingPaid:
		return nil
	case !billing.DueDate.IsZero() && billing.DueDate.Before(now):
		next = models.BillingOverdue
	default:
		next = models.BillingSent
	}
	if next == billing.Status {
		return nil
	}
	return tx.Model(&billing).Update("status", next).Error
}
