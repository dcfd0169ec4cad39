package workflow

import (
	"time"

	"hometax_automation/domain/entities"
)

// QueryRangeDays is how far back the filed-returns query looks
const QueryRangeDays = 30

// dateLayout is the YYYYMMDD format of the portal's date fields
const dateLayout = "20060102"

const (
	ReturnPDFName  = "종합소득세_신고서.pdf"
	PaymentPDFName = "종합소득세_납부서.pdf"
)

// PeriodButtonStep sets the query range in one click; the typed dates are its fallback
const PeriodButtonStep = "조회기간 1개월"

// PlanParams are the inputs of the income-tax plan
type PlanParams struct {
	PortalURL string
	Resident  entities.ResidentNumber
	Now       time.Time
	// Payment adds the payment-slip export after the return
	Payment bool
}

// QueryRange - returns the query start and end dates
func (p PlanParams) QueryRange() (string, string) {
	end := p.Now
	start := end.AddDate(0, 0, -QueryRangeDays)
	return start.Format(dateLayout), end.Format(dateLayout)
}

// IncomeTaxPlan - the steps from the portal home page to the exported return (and payment slip when asked)
func IncomeTaxPlan(p PlanParams) []entities.Step {
	start, end := p.QueryRange()

	steps := []entities.Step{
		{Name: "홈택스 접속", Kind: entities.StepNavigate, URL: p.PortalURL},
		click("로그인 버튼", entities.LocateRequest{
			Description: "'로그인' button",
			LinkText:    "로그인",
			OCRText:     "로그인",
		}),
		click("공동·금융인증서 로그인", entities.LocateRequest{
			Description: "certificate login button",
			Structural:  "//a[@id='loginBtnCert'] | //button[contains(text(), '공인인증서')] | //button[contains(text(), '인증서')]",
			Image:       &entities.ImageTarget{Name: "cert_login.png"},
			OCRText:     "공인인증서",
		}),
		{
			Name: "인증서 로그인",
			Kind: entities.StepManual,
			Instructions: []string{
				"인증서를 선택합니다",
				"인증서 비밀번호를 입력합니다",
				"로그인을 완료합니다",
			},
		},
		menu("신고/납부 메뉴", "신고/납부", "//a[contains(text(), '신고/납부')]", "신고납부.png"),
		menu("종합소득세 메뉴", "종합소득세", "//a[contains(text(), '종합소득세')]", "종합소득세.png"),
		{
			Name: "신고내역 조회 메뉴",
			Kind: entities.StepLocate,
			Locate: func() (entities.LocateRequest, entities.Action) {
				return entities.LocateRequest{
					Description: "'신고내역 조회(접수증/납부서)' menu",
					Structural:  "//a[contains(text(), '신고내역') or contains(text(), '접수증')]",
					LinkText:    "신고내역",
					Image:       &entities.ImageTarget{Name: "신고내역조회.png"},
					OCRText:     "신고내역",
				}, entities.Click()
			},
		},
		typeInto("주민등록번호 앞자리", "txppTin1", entities.SensitiveText(p.Resident.Front())),
		typeInto("주민등록번호 뒷자리", "txppTin2", entities.SensitiveText(p.Resident.Back())),
		{
			Name:    PeriodButtonStep,
			Kind:    entities.StepLocate,
			TryOnly: true,
			Locate: func() (entities.LocateRequest, entities.Action) {
				return entities.LocateRequest{
					Description: "'1개월' period button",
					Structural:  "//button[contains(text(), '1개월')] | //input[@value='1개월']",
					LinkText:    "1개월",
					OCRText:     "1개월",
				}, entities.Click()
			},
		},
		fallbackFor(PeriodButtonStep, typeInto("조회 시작일", "srtDt", entities.TypeText(start))),
		fallbackFor(PeriodButtonStep, typeInto("조회 종료일", "endDt", entities.TypeText(end))),
		click("조회 버튼", entities.LocateRequest{
			Description: "'조회' button",
			Structural:  "//button[contains(text(), '조회')] | //input[@value='조회']",
			Image:       &entities.ImageTarget{Name: "조회.png"},
			OCRText:     "조회",
		}),
		{
			Name: "접수번호 선택",
			Kind: entities.StepManual,
			Instructions: []string{
				"조회 결과에서 접수번호를 클릭합니다",
				"팝업에서 '개인정보 공개'를 클릭합니다",
			},
		},
		optionalClick("일괄출력 버튼", entities.LocateRequest{
			Description: "'일괄출력' button",
			Structural:  "//button[contains(text(), '일괄출력')] | //input[@value='일괄출력']",
			LinkText:    "일괄출력",
			Image:       &entities.ImageTarget{Name: "일괄출력.png"},
			OCRText:     "일괄출력",
		}),
		{Name: "신고서 팝업", Kind: entities.StepPopup, Optional: true},
		exportPDF("신고서 PDF 저장", ReturnPDFName),
		{Name: "신고서 팝업 닫기", Kind: entities.StepClosePopup, Optional: true},
	}
	if p.Payment {
		steps = append(steps, paymentSteps()...)
	}
	return steps
}

// paymentSteps - export of the payment slip from the same filing
func paymentSteps() []entities.Step {
	return []entities.Step{
		optionalClick("납부서 버튼", entities.LocateRequest{
			Description: "'납부서' button",
			Structural:  "//button[contains(text(), '납부서')] | //input[@value='납부서']",
			LinkText:    "납부서",
			Image:       &entities.ImageTarget{Name: "납부서.png"},
			OCRText:     "납부서",
		}),
		{Name: "납부서 팝업", Kind: entities.StepPopup, Optional: true},
		exportPDF("납부서 PDF 저장", PaymentPDFName),
		{Name: "납부서 팝업 닫기", Kind: entities.StepClosePopup, Optional: true},
	}
}

func click(name string, req entities.LocateRequest) entities.Step {
	return entities.Step{
		Name: name,
		Kind: entities.StepLocate,
		Locate: func() (entities.LocateRequest, entities.Action) {
			return req, entities.Click()
		},
	}
}

// fallbackFor - runs step only when the named shortcut step did not complete
func fallbackFor(shortcut string, step entities.Step) entities.Step {
	step.SkipAfter = shortcut
	return step
}

func optionalClick(name string, req entities.LocateRequest) entities.Step {
	step := click(name, req)
	step.Optional = true
	return step
}

// menu - a top navigation entry reachable by every finder
func menu(name, label, xpath, image string) entities.Step {
	return click(name, entities.LocateRequest{
		Description: "'" + label + "' menu",
		Structural:  entities.StructuralQuery(xpath),
		LinkText:    label,
		Image:       &entities.ImageTarget{Name: image},
		OCRText:     label,
	})
}

// typeInto - a form field addressed by its name or id attribute
func typeInto(name, field string, action entities.Action) entities.Step {
	return entities.Step{
		Name: name,
		Kind: entities.StepLocate,
		Locate: func() (entities.LocateRequest, entities.Action) {
			return entities.LocateRequest{
				Description: name + " (" + field + ")",
				Structural:  entities.StructuralQuery("input[name='" + field + "'], #" + field),
			}, action
		},
	}
}

func exportPDF(name, file string) entities.Step {
	return entities.Step{
		Name:     name,
		Kind:     entities.StepExportPDF,
		FileName: file,
		Optional: true,
		Instructions: []string{
			"팝업에서 '인쇄'를 클릭하거나 Ctrl+P 를 누릅니다",
			"대상을 'PDF로 저장'으로 선택합니다",
			"출력 폴더에 " + file + " 로 저장합니다",
		},
	}
}
