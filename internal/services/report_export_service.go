package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// ReportExportService renders daily summaries and recipe costings as XLSX
// workbooks for the office.
type ReportExportService struct {
	db *gorm.DB
}

func NewReportExportService(db *gorm.DB) *ReportExportService {
	return &ReportExportService{db: db}
}

// ExportDailySummaries writes the summaries for a range into an XLSX buffer
func (es *ReportExportService) ExportDailySummaries(start, end time.Time) (*bytes.Buffer, error) {
	var summaries []models.DailySummary
	err := es.db.Where("date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Order("date ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	const sheet = "Daily Summaries"
	index, err := workbook.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	workbook.SetActiveSheet(index)
	workbook.DeleteSheet("Sheet1")

	headers := []string{
		"Date", "Total Sales", "Total Orders", "Total Customers",
		"Average Order Value", "Food Cost", "Food Cost (Conservative)",
		"Resale Cost", "Food Cost %", "Gross Profit", "Gross Profit Margin %",
		"COGS Confidence", "Data Completeness %", "Cash Sales", "Mobile Money Sales",
		"Card Sales", "Performance Grade",
	}
	for col, header := range headers {
		cellName, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := workbook.SetCellValue(sheet, cellName, header); err != nil {
			return nil, err
		}
	}

	for rowIdx := range summaries {
		d := &summaries[rowIdx]
		values := []interface{}{
			d.Date.Format("2006-01-02"),
			d.TotalSales.InexactFloat64(),
			d.TotalOrders,
			d.TotalCustomers,
			d.AverageOrderValue.InexactFloat64(),
			d.TotalFoodCost.InexactFloat64(),
			d.TotalFoodCostConservative.InexactFloat64(),
			d.ResaleCost.InexactFloat64(),
			d.FoodCostPercentage.InexactFloat64(),
			d.GrossProfit.InexactFloat64(),
			d.GrossProfitMargin.InexactFloat64(),
			d.CogsConfidenceLevel,
			d.DataCompletenessPercentage.InexactFloat64(),
			d.CashSales.InexactFloat64(),
			d.MobileMoneySales.InexactFloat64(),
			d.CreditCardSales.InexactFloat64(),
			d.PerformanceGrade(),
		}
		for col, value := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := workbook.SetCellValue(sheet, cellName, value); err != nil {
				return nil, err
			}
		}
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// ExportRecipeCosts writes the active recipe book with its persisted costing
// into an XLSX buffer.
func (es *ReportExportService) ExportRecipeCosts() (*bytes.Buffer, error) {
	var recipes []models.Recipe
	err := es.db.Preload("Ingredients").Preload("Ingredients.Ingredient").
		Where("is_active = ?", true).
		Order("dish_name ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	const recipeSheet = "Recipes"
	index, err := workbook.NewSheet(recipeSheet)
	if err != nil {
		return nil, err
	}
	workbook.SetActiveSheet(index)
	workbook.DeleteSheet("Sheet1")

	recipeHeaders := []string{
		"Dish", "Category", "Serving Size", "Base Cost / Portion",
		"Total Cost / Portion", "Suggested Price", "Actual Price",
		"Food Cost %", "Last Costed",
	}
	for col, header := range recipeHeaders {
		cellName, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := workbook.SetCellValue(recipeSheet, cellName, header); err != nil {
			return nil, err
		}
	}

	const ingredientSheet = "Ingredients"
	if _, err := workbook.NewSheet(ingredientSheet); err != nil {
		return nil, err
	}
	ingredientHeaders := []string{"Dish", "Ingredient", "Quantity", "Cost / Unit", "Total Cost", "Cost / Portion", "Optional"}
	for col, header := range ingredientHeaders {
		cellName, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := workbook.SetCellValue(ingredientSheet, cellName, header); err != nil {
			return nil, err
		}
	}

	ingredientRow := 2
	for rowIdx := range recipes {
		r := &recipes[rowIdx]

		actualPrice := ""
		if r.ActualSellingPricePerPortion != nil {
			actualPrice = r.ActualSellingPricePerPortion.StringFixed(2)
		}
		foodCostPct := ""
		if pct := r.ActualFoodCostPercentage(); pct != nil {
			foodCostPct = pct.StringFixed(2)
		}
		lastCosted := ""
		if r.LastCostedDate != nil {
			lastCosted = r.LastCostedDate.Format("2006-01-02")
		}

		values := []interface{}{
			r.DishName,
			r.Category,
			r.ServingSize.InexactFloat64(),
			r.BaseFoodCostPerPortion.InexactFloat64(),
			r.TotalCostPerPortion().InexactFloat64(),
			r.SuggestedSellingPricePerPortion.InexactFloat64(),
			actualPrice,
			foodCostPct,
			lastCosted,
		}
		for col, value := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := workbook.SetCellValue(recipeSheet, cellName, value); err != nil {
				return nil, err
			}
		}

		for i := range r.Ingredients {
			line := &r.Ingredients[i]
			ingredientName := ""
			if line.Ingredient != nil {
				ingredientName = line.Ingredient.Name
			}
			lineValues := []interface{}{
				r.DishName,
				ingredientName,
				line.Quantity.InexactFloat64(),
				line.CostPerUnit.InexactFloat64(),
				line.TotalCost.InexactFloat64(),
				line.CostPerPortion.InexactFloat64(),
				line.IsOptional,
			}
			for col, value := range lineValues {
				cellName, _ := excelize.CoordinatesToCellName(col+1, ingredientRow)
				if err := workbook.SetCellValue(ingredientSheet, cellName, value); err != nil {
					return nil, err
				}
			}
			ingredientRow++
		}
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
