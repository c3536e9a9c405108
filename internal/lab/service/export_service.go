package service

import (
	"context"
	"fmt"
	"time"

	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/workflow"
	"github.com/xuri/excelize/v2"
)

// ExportService 材料台账导出服务
type ExportService struct {
	material *repository.MaterialRepository
}

func NewExportService(material *repository.MaterialRepository) *ExportService {
	return &ExportService{material: material}
}

var materialExportHeaders = []string{
	"材料编码", "材料类型", "客户名称", "客户电话", "阶段", "状态", "收样时间", "备注",
}

// ExportMaterials 导出材料台账。只导出该角色可见阶段的材料。
func (s *ExportService) ExportMaterials(ctx context.Context, role workflow.Role, stageFilter string) (*excelize.File, string, error) {
	visible := workflow.VisibleStages(role)
	stages := make([]string, 0, len(visible))
	for _, st := range visible {
		if stageFilter != "" && string(st) != stageFilter {
			continue
		}
		stages = append(stages, string(st))
	}

	var items []entity.Material
	if len(stages) > 0 {
		var err error
		items, _, err = s.material.FindAll(ctx, 1, 10000, stages, nil)
		if err != nil {
			return nil, "", fmt.Errorf("查询材料失败: %w", err)
		}
	}

	f := excelize.NewFile()
	sheet := "材料台账"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range materialExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, item := range items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.MaterialType)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.CustomerName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.CustomerPhone)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Stage)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Status)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.ReceivedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.Notes)
	}

	fileName := fmt.Sprintf("materials_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, fileName, nil
}
