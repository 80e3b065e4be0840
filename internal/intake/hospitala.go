package intake

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// hospitalAAdapter handles Hospital A's XML format. Patient fields are
// nested text elements; provider identity and display name are attributes
// on a single Physician element; repeated Secondary and MedHistory/Item
// elements are collected in document order with blank text nodes dropped:
//
//	<Order>
//	  <Patient>
//	    <PatientMRN>123456</PatientMRN>
//	    <PatientFirstName>Jane</PatientFirstName>
//	    <PatientLastName>Smith</PatientLastName>
//	    <DateOfBirth>1975-06-20</DateOfBirth>
//	  </Patient>
//	  <Physician NPI="0987654321" Name="Dr. Lee" />
//	  <Diagnosis Primary="M05.79">
//	    <Secondary>M79.3</Secondary>
//	  </Diagnosis>
//	  <Medication Name="Methotrexate" />
//	  <MedHistory>
//	    <Item>Hydroxychloroquine 2019-2021</Item>
//	  </MedHistory>
//	  <ClinicalNotes>...</ClinicalNotes>
//	</Order>
//
// Hospital A has no resubmit signal, so confirm is always false.
type hospitalAAdapter struct{}

type hospitalADocument struct {
	XMLName xml.Name `xml:"Order"`
	Patient struct {
		MRN       string `xml:"PatientMRN"`
		FirstName string `xml:"PatientFirstName"`
		LastName  string `xml:"PatientLastName"`
		DOB       string `xml:"DateOfBirth"`
	} `xml:"Patient"`
	Physician struct {
		NPI  string `xml:"NPI,attr"`
		Name string `xml:"Name,attr"`
	} `xml:"Physician"`
	Diagnosis struct {
		Primary   string   `xml:"Primary,attr"`
		Secondary []string `xml:"Secondary"`
	} `xml:"Diagnosis"`
	Medication struct {
		Name string `xml:"Name,attr"`
	} `xml:"Medication"`
	MedHistory struct {
		Items []string `xml:"Item"`
	} `xml:"MedHistory"`
	ClinicalNotes string `xml:"ClinicalNotes"`
}

func (hospitalAAdapter) Source() string { return "hospital_a" }

func (hospitalAAdapter) Parse(body []byte) (interface{}, error) {
	var doc hospitalADocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (hospitalAAdapter) Transform(intermediate interface{}) (*Order, error) {
	doc, ok := intermediate.(*hospitalADocument)
	if !ok {
		return nil, fmt.Errorf("unexpected intermediate type %T", intermediate)
	}

	var history []HistoryItem
	for _, item := range doc.MedHistory.Items {
		if item = strings.TrimSpace(item); item != "" {
			history = append(history, TextItem(item))
		}
	}

	return &Order{
		Patient: Patient{
			MRN:       strings.TrimSpace(doc.Patient.MRN),
			FirstName: orUnknown(doc.Patient.FirstName),
			LastName:  orUnknown(doc.Patient.LastName),
			DOB:       strings.TrimSpace(doc.Patient.DOB),
		},
		Provider: Provider{
			NPI:  strings.TrimSpace(doc.Physician.NPI),
			Name: orUnknown(doc.Physician.Name),
		},
		Medication: Medication{
			Name:                strings.TrimSpace(doc.Medication.Name),
			PrimaryDiagnosis:    strings.TrimSpace(doc.Diagnosis.Primary),
			AdditionalDiagnoses: cleanCodes(doc.Diagnosis.Secondary),
			History:             history,
		},
		PatientRecords: strings.TrimSpace(doc.ClinicalNotes),
	}, nil
}
