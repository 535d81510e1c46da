package main

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

type RunInfoHDF5 struct {
	run_number int32
}

type CalibrationHDF5 struct {
	channel       int32
	adc_per_pe    float64
	charge_per_pe float64
}

type RateHDF5 struct {
	channel  int32
	rate_khz float64
}

type HistBinHDF5 struct {
	center  float64
	content float64
}

type SeriesInfoHDF5 struct {
	channel   int32
	first_run int32
	last_run  int32
}

func openFile(fname string) *hdf5.File {
	// create the file
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		panic(err)
	}
	return f
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	return g, err
}

func createSubGroup(group *hdf5.Group, groupName string) (*hdf5.Group, error) {
	g, err := group.CreateGroup(groupName)
	return g, err
}

func createTable(group *hdf5.Group, name string, datatype interface{}) *hdf5.Dataset {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		fmt.Println("space")
		panic(err)
	}

	// create property list
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		fmt.Println("plist")
		panic(err)
	}
	chunks := []uint{32768}
	plist.SetChunk(chunks)
	// Set compression level
	plist.SetDeflate(4)

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		fmt.Println("datatype")
		panic("could not create a dtype")
	}

	// create the dataset
	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		fmt.Println("dataset")
		fmt.Println(err)
		panic(err)
	}
	return dset
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T) {
	array := []T{data}
	writeArrayToTable(dataset, &array)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T) {
	length := uint(len(*data))
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		fmt.Println("space")
		panic(err)
	}

	// extend
	dimsGot, _, err := dataset.Space().SimpleExtentDims()
	if err != nil {
		panic(err)
	}
	entriesInFile := dimsGot[0]
	newsize := []uint{entriesInFile + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()

	start := []uint{entriesInFile}
	count := []uint{length}
	filespace.SelectHyperslab(start, nil, count, nil)

	// write data to the dataset
	err = dataset.WriteSubset(data, dataspace, filespace)
	if err != nil {
		fmt.Println("final write")
		panic(err)
	}

	dataspace.Close()
	filespace.Close()
}

// createMatrix makes a fixed-size float64 2D dataset.
func createMatrix(group *hdf5.Group, name string, rows, cols int) *hdf5.Dataset {
	dims := []uint{uint(rows), uint(cols)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, dims)
	if err != nil {
		fmt.Println("space")
		panic(err)
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		fmt.Println("plist")
		panic(err)
	}
	plist.SetChunk([]uint{1, uint(cols)})
	plist.SetDeflate(4)

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_DOUBLE, file_space, plist)
	if err != nil {
		fmt.Println("dataset")
		fmt.Println(err)
		panic(err)
	}
	return dset
}

func writeMatrix(dataset *hdf5.Dataset, data *[]float64) {
	err := dataset.Write(data)
	if err != nil {
		panic(err)
	}
}
