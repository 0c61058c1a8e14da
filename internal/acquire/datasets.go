// Package acquire loads the zillow and mall datasets from a SQL database,
// caching query results as CSV files.
package acquire

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ErrUnknownDataset is returned by Lookup for a name that is not registered.
var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset describes where a table comes from and how it is cached.
type Dataset struct {
	Name      string
	Database  string
	Query     string
	CacheFile string
	// DedupeKey, if set, keeps only the last row for each key value.
	DedupeKey string
	// IndexColumn is the row identifier; it is never filtered or scaled.
	IndexColumn string
}

const zillowQuery = `
SELECT parcelid, basementsqft, bathroomcnt AS bathrooms, bedroomcnt AS bedrooms,
       calculatedbathnbr, finishedfloor1squarefeet, calculatedfinishedsquarefeet, finishedsquarefeet12,
       finishedsquarefeet13, finishedsquarefeet15, finishedsquarefeet50, finishedsquarefeet6, fips, fireplacecnt,
       fullbathcnt, garagecarcnt, garagetotalsqft AS garagesqft, hashottuborspa, latitude,
       longitude, lotsizesquarefeet AS lotsize, poolcnt, poolsizesum,
       pooltypeid10, pooltypeid2, pooltypeid7, propertycountylandusecode, propertyzoningdesc,
       rawcensustractandblock, regionidcity, regionidcounty,
       regionidneighborhood, regionidzip, roomcnt, threequarterbathnbr,
       unitcnt, yardbuildingsqft17, yardbuildingsqft26, yearbuilt,
       numberofstories, fireplaceflag, structuretaxvaluedollarcnt,
       taxvaluedollarcnt AS tax_value, assessmentyear, landtaxvaluedollarcnt,
       taxamount, taxdelinquencyflag, taxdelinquencyyear, censustractandblock, logerror, transactiondate,
       airconditioningdesc, architecturalstyledesc, buildingclassdesc,
       heatingorsystemdesc, storydesc, propertylandusedesc, typeconstructiondesc
FROM properties_2017
JOIN predictions_2017 USING (parcelid)
LEFT JOIN airconditioningtype USING (airconditioningtypeid)
LEFT JOIN architecturalstyletype USING (architecturalstyletypeid)
LEFT JOIN buildingclasstype USING (buildingclasstypeid)
LEFT JOIN heatingorsystemtype USING (heatingorsystemtypeid)
LEFT JOIN storytype USING (storytypeid)
LEFT JOIN propertylandusetype USING (propertylandusetypeid)
LEFT JOIN typeconstructiontype USING (typeconstructiontypeid)
ORDER BY transactiondate`

// Zillow is the 2017 properties joined with their predictions. Properties
// sold more than once keep their latest transaction.
var Zillow = Dataset{
	Name:        "zillow",
	Database:    "zillow",
	Query:       zillowQuery,
	CacheFile:   "zillow.csv",
	DedupeKey:   "parcelid",
	IndexColumn: "parcelid",
}

// Mall is the mall customers table.
var Mall = Dataset{
	Name:        "mall",
	Database:    "mall_customers",
	Query:       "SELECT * FROM customers;",
	CacheFile:   "mall_customers.csv",
	IndexColumn: "customer_id",
}

var registry = map[string]Dataset{
	Zillow.Name: Zillow,
	Mall.Name:   Mall,
}

// Lookup returns the registered dataset with the given name.
func Lookup(name string) (Dataset, error) {
	ds, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Dataset{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownDataset, name, strings.Join(Names(), ", "))
	}
	return ds, nil
}

// Names lists registered dataset names, sorted.
func Names() []string {
	out := lo.Keys(registry)
	sort.Strings(out)
	return out
}
